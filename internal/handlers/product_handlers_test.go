package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuskart/campus_market/internal/models"
)

func TestCreateProductRoleGate(t *testing.T) {
	env := newTestEnv(t)

	student, _ := env.register("student@x.com", models.RoleStudent)
	rec := env.doJSON(http.MethodPost, "/products", map[string]interface{}{
		"name":        "Old Laptop",
		"category":    "Electronics",
		"price":       250.0,
		"description": "works fine, minor scratches",
	}, student)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	faculty, facultyID := env.register("faculty@x.com", models.RoleFaculty)
	rec = env.doJSON(http.MethodPost, "/products", map[string]interface{}{
		"name":        "Old Laptop",
		"category":    "Electronics",
		"price":       250.0,
		"description": "works fine, minor scratches",
	}, faculty)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var prod models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prod))
	require.Equal(t, facultyID, prod.SellerID)
	require.Equal(t, models.StatusAvailable, prod.Status)
}

func TestCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)
	faculty, _ := env.register("faculty@x.com", models.RoleFaculty)

	valid := func() map[string]interface{} {
		return map[string]interface{}{
			"name":        "Old Laptop",
			"category":    "Electronics",
			"price":       250.0,
			"description": "works fine, minor scratches",
		}
	}

	cases := map[string]func(p map[string]interface{}){
		"empty name":        func(p map[string]interface{}) { p["name"] = "" },
		"bad category":      func(p map[string]interface{}) { p["category"] = "Furniture" },
		"zero price":        func(p map[string]interface{}) { p["price"] = 0.0 },
		"negative price":    func(p map[string]interface{}) { p["price"] = -5.0 },
		"short description": func(p map[string]interface{}) { p["description"] = "short" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			payload := valid()
			mutate(payload)
			rec := env.doJSON(http.MethodPost, "/products", payload, faculty)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodGet, "/products/9999", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSON(http.MethodGet, "/products/abc", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProductsFilters(t *testing.T) {
	env := newTestEnv(t)
	seller1, id1 := env.register("s1@x.com", models.RoleFaculty)
	seller2, _ := env.register("s2@x.com", models.RoleFaculty)

	env.createProduct(seller1, "Physics Textbook")
	soldID := env.createProduct(seller1, "Chemistry Textbook")
	env.createProduct(seller2, "Desk Lamp")

	rec := env.doJSON(http.MethodPut, fmt.Sprintf("/products/%d/sell", soldID), nil, seller2)
	require.Equal(t, http.StatusOK, rec.Code)

	type listResp struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}

	list := func(query string) listResp {
		rec := env.doJSON(http.MethodGet, "/products"+query, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp listResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	require.Equal(t, int64(3), list("").Meta.Total)
	require.Equal(t, int64(2), list("?available=true").Meta.Total)
	require.Equal(t, int64(2), list(fmt.Sprintf("?seller_id=%d", id1)).Meta.Total)
	require.Equal(t, int64(1), list(fmt.Sprintf("?exclude_seller_id=%d", id1)).Meta.Total)

	rec = env.doJSON(http.MethodGet, "/products?category=Furniture", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProductOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.register("owner@x.com", models.RoleFaculty)
	other, _ := env.register("other@x.com", models.RoleFaculty)
	id := env.createProduct(owner, "Graphing Calculator")

	path := fmt.Sprintf("/products/%d", id)

	rec := env.doJSON(http.MethodPut, path, map[string]interface{}{"price": 80.0}, other)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = env.doJSON(http.MethodPut, path, map[string]interface{}{"price": 80.0}, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var prod models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prod))
	require.Equal(t, 80.0, prod.Price)

	// admin can edit anyone's listing
	admin, _ := env.loginAdmin("admin@x.com")
	rec = env.doJSON(http.MethodPut, path, map[string]interface{}{"name": "TI-84 Calculator"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// status writes are limited to Available and Sold
	rec = env.doJSON(http.MethodPut, path, map[string]interface{}{"status": "Pending"}, owner)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProductOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.register("owner@x.com", models.RoleFaculty)
	other, _ := env.register("other@x.com", models.RoleFaculty)
	id := env.createProduct(owner, "Office Chair")

	path := fmt.Sprintf("/products/%d", id)

	rec := env.doJSON(http.MethodDelete, path, nil, other)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.doJSON(http.MethodDelete, path, nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMineRelabelsOwnListings(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.register("owner@x.com", models.RoleFaculty)
	env.createProduct(owner, "Bookshelf Speakers")

	rec := env.doJSON(http.MethodGet, "/products/mine", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data []struct {
			models.Product
			DisplayStatus string `json:"display_status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, models.StatusAvailable, resp.Data[0].Status)
	require.Equal(t, models.StatusPending, resp.Data[0].DisplayStatus)
}

func TestSellProduct(t *testing.T) {
	env := newTestEnv(t)
	seller, _ := env.register("seller@x.com", models.RoleFaculty)
	buyer, _ := env.register("buyer@x.com", models.RoleStudent)
	id := env.createProduct(seller, "Mountain Bike")

	path := fmt.Sprintf("/products/%d/sell", id)

	rec := env.doJSON(http.MethodPut, path, nil, buyer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var prod models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prod))
	require.Equal(t, models.StatusSold, prod.Status)

	// second attempt finds it already sold
	rec = env.doJSON(http.MethodPut, path, nil, buyer)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.doJSON(http.MethodPut, "/products/9999/sell", nil, buyer)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSellProductConcurrentBuyers(t *testing.T) {
	env := newTestEnv(t)
	seller, _ := env.register("seller@x.com", models.RoleFaculty)
	buyer1, _ := env.register("buyer1@x.com", models.RoleStudent)
	buyer2, _ := env.register("buyer2@x.com", models.RoleStudent)
	id := env.createProduct(seller, "Concert Ticket")

	path := fmt.Sprintf("/products/%d/sell", id)
	codes := make([]int, 2)

	var wg sync.WaitGroup
	for i, bearer := range []string{buyer1, buyer2} {
		wg.Add(1)
		go func(i int, bearer string) {
			defer wg.Done()
			codes[i] = env.doJSON(http.MethodPut, path, nil, bearer).Code
		}(i, bearer)
	}
	wg.Wait()

	// exactly one buyer wins
	wins, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			wins++
		case http.StatusConflict:
			conflicts++
		}
	}
	require.Equal(t, 1, wins, "codes: %v", codes)
	require.Equal(t, 1, conflicts, "codes: %v", codes)
}
