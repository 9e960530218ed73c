package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"shopfusion/internal/app"
	"shopfusion/internal/config"
	"shopfusion/internal/database"
	"shopfusion/internal/notify"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	adminKey      = "test-admin-key"
	sessionCookie = "cart_session"
)

// recordingNotifier keeps every notification so tests can follow emailed links.
type recordingNotifier struct {
	messages []notify.Message
}

func (n *recordingNotifier) Notify(ctx context.Context, msg notify.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) last(t *testing.T, template string) notify.Message {
	t.Helper()
	for i := len(n.messages) - 1; i >= 0; i-- {
		if n.messages[i].Template == template {
			return n.messages[i]
		}
	}
	t.Fatalf("no %s notification sent", template)
	return notify.Message{}
}

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	notifier *recordingNotifier
}

// setupApp sets up the Fiber app for testing with a private in-memory SQLite database.
func setupApp(t *testing.T) *testServer {
	t.Helper()

	v := config.New()
	v.Set("JWT_SECRET", "test_jwt_secret")
	v.Set("ADMIN_API_KEY", adminKey)
	v.Set("PUBLIC_BASE_URL", "http://shop.test")
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	notifier := &recordingNotifier{}
	return &testServer{
		app: app.NewApp(app.Dependencies{
			Config:   cfg,
			DB:       db,
			Notifier: notifier,
		}),
		db:       db,
		notifier: notifier,
	}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

// client carries the identity of one browser: its session cookie and,
// once logged in, its bearer token.
type client struct {
	t       *testing.T
	server  *testServer
	session string
	token   string
}

func (s *testServer) client(t *testing.T) *client {
	return &client{t: t, server: s}
}

func (c *client) do(method, path string, body interface{}, headers ...string) (*http.Response, map[string]interface{}) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.session})
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.server.app.Test(req, -1) // -1 for no timeout
	require.NoError(c.t, err)
	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookie {
			c.session = cookie.Value
		}
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	resp.Body.Close()
	// Array bodies are left to callers that decode them themselves.
	var result map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(c.t, json.Unmarshal(raw, &result))
	}
	return resp, result
}

func (c *client) admin(method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	c.t.Helper()
	return c.do(method, path, body, "X-API-KEY", adminKey)
}

// createProduct creates a product with the given variations through the admin API.
func createProduct(t *testing.T, s *testServer, name string, price int, variations map[string]string) (id, slug string) {
	t.Helper()
	c := s.client(t)
	resp, body := c.admin(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{
		"name":  name,
		"price": price,
		"stock": 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, slug = body["id"].(string), body["slug"].(string)

	for category, values := range variations {
		resp, _ = c.admin(http.MethodPost, "/api/v1/admin/products/"+id+"/variations", map[string]string{
			"category": category,
			"value":    values,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	return id, slug
}

// registerAndLogin creates an active account and returns a logged in client.
func registerAndLogin(t *testing.T, s *testServer, email string) *client {
	t.Helper()
	c := s.client(t)
	resp, _ := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"first_name":       "Jane",
		"last_name":        "Doe",
		"phone_number":     "0123456789",
		"email":            email,
		"password":         "password123",
		"confirm_password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	link := s.notifier.last(t, notify.TemplateAccountVerification).Data["activation_url"].(string)
	resp, _ = c.do(http.MethodGet, strings.TrimPrefix(link, "http://shop.test"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	c.login(email, "password123")
	return c
}

func (c *client) login(email, password string) {
	c.t.Helper()
	resp, body := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	c.token = body["token"].(string)
}

func cartItems(body map[string]interface{}) []map[string]interface{} {
	raw, _ := body["items"].([]interface{})
	items := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		items = append(items, item.(map[string]interface{}))
	}
	return items
}

func itemPath(prefix string, item map[string]interface{}) string {
	return fmt.Sprintf("%s/%s/%d", prefix, item["product_id"], int(item["id"].(float64)))
}

func TestHealth(t *testing.T) {
	s := setupApp(t)

	resp, body := s.client(t).do(http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["broker"])
}

func TestAnonymousCartFlow(t *testing.T) {
	s := setupApp(t)
	shirt, _ := createProduct(t, s, "Blue Shirt", 500, map[string]string{"color": "red,blue"})
	c := s.client(t)

	// The first request mints the session cookie.
	resp, _ := c.do(http.MethodPost, "/api/v1/cart/add/"+shirt, map[string]string{"color": "red"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, c.session)
	resp, _ = c.do(http.MethodPost, "/api/v1/cart/add/"+shirt, map[string]string{"color": "red"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = c.do(http.MethodPost, "/api/v1/cart/add/"+shirt, map[string]string{"color": "blue"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := c.do(http.MethodGet, "/api/v1/cart/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := cartItems(body)
	require.Len(t, items, 2)
	assert.Equal(t, float64(2), items[0]["quantity"])
	assert.Equal(t, float64(3), body["quantity"])
	assert.Equal(t, float64(1500), body["subtotal"])
	assert.Equal(t, "22.5", body["tax"])
	assert.Equal(t, "1522.5", body["grand_total"])

	// Another browser cannot touch these items.
	stranger := s.client(t)
	resp, body = stranger.do(http.MethodDelete, itemPath("/api/v1/cart", items[0]), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cart unchanged", body["message"])

	resp, body = c.do(http.MethodPost, itemPath("/api/v1/cart/decrement", items[0]), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cart updated", body["message"])
	assert.Equal(t, float64(2), body["cart"].(map[string]interface{})["quantity"])

	resp, body = c.do(http.MethodDelete, itemPath("/api/v1/cart", items[1]), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cart updated", body["message"])

	resp, body = c.do(http.MethodDelete, itemPath("/api/v1/cart", items[1]), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cart unchanged", body["message"])

	resp, _ = c.do(http.MethodDelete, "/api/v1/cart/"+shirt+"/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddToCartErrors(t *testing.T) {
	s := setupApp(t)
	c := s.client(t)

	resp, _ := c.do(http.MethodPost, "/api/v1/cart/add/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	c2 := s.client(t)
	resp, body := c2.admin(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{
		"name":         "Retired Lamp",
		"price":        100,
		"is_available": false,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = c.do(http.MethodPost, "/api/v1/cart/add/"+body["id"].(string), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	shirt, _ := createProduct(t, s, "Blue Shirt", 500, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add/"+shirt, strings.NewReader("{not json"))
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginMergesSessionCart(t *testing.T) {
	s := setupApp(t)
	shirt, _ := createProduct(t, s, "Blue Shirt", 500, map[string]string{"color": "red"})
	mug, _ := createProduct(t, s, "Coffee Mug", 200, nil)

	user := registerAndLogin(t, s, "jane@example.com")
	for i := 0; i < 2; i++ {
		resp, _ := user.do(http.MethodPost, "/api/v1/cart/add/"+shirt, map[string]string{"color": "red"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// Same person shopping anonymously in another browser.
	browser := s.client(t)
	browser.do(http.MethodPost, "/api/v1/cart/add/"+shirt, map[string]string{"color": "red"})
	browser.do(http.MethodPost, "/api/v1/cart/add/"+mug, nil)
	browser.login("jane@example.com", "password123")

	resp, body := browser.do(http.MethodGet, "/api/v1/cart/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	quantities := map[string]float64{}
	for _, item := range cartItems(body) {
		quantities[item["product_id"].(string)] = item["quantity"].(float64)
	}
	assert.Equal(t, map[string]float64{shirt: 3, mug: 1}, quantities)

	// The session cart is gone; logging out leaves an empty anonymous cart.
	browser.token = ""
	_, body = browser.do(http.MethodGet, "/api/v1/cart/", nil)
	assert.Empty(t, cartItems(body))
}

func TestLoginFailsWhenCartMergeFails(t *testing.T) {
	s := setupApp(t)
	mug, _ := createProduct(t, s, "Coffee Mug", 200, nil)
	registerAndLogin(t, s, "jane@example.com")

	browser := s.client(t)
	resp, _ := browser.do(http.MethodPost, "/api/v1/cart/add/"+mug, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	const callback = "test:fail_cart_item_update"
	require.NoError(t, s.db.Callback().Update().Before("gorm:update").Register(callback, func(tx *gorm.DB) {
		if tx.Statement.Table == "cart_items" {
			tx.AddError(errors.New("disk full"))
		}
	}))

	credentials := map[string]string{"email": "jane@example.com", "password": "password123"}
	resp, body := browser.do(http.MethodPost, "/api/v1/auth/login", credentials)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, body, "token")
	assert.Empty(t, browser.token)

	// The session cart survives the failed login and merges on retry.
	require.NoError(t, s.db.Callback().Update().Remove(callback))
	browser.login("jane@example.com", "password123")

	resp, body = browser.do(http.MethodGet, "/api/v1/cart/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := cartItems(body)
	require.Len(t, items, 1)
	assert.Equal(t, mug, items[0]["product_id"])
	assert.Equal(t, float64(1), items[0]["quantity"])
}

func TestCheckoutFlow(t *testing.T) {
	s := setupApp(t)
	lamp, _ := createProduct(t, s, "Desk Lamp", 1000, nil)
	user := registerAndLogin(t, s, "jane@example.com")

	billing := map[string]string{
		"first_name":     "Jane",
		"last_name":      "Doe",
		"phone_number":   "0123456789",
		"email":          "jane@example.com",
		"address_line_1": "1 Main Street",
		"country":        "NL",
		"state":          "NH",
		"city":           "Amsterdam",
	}

	// Empty cart goes back to the store.
	resp, _ := user.do(http.MethodPost, "/api/v1/orders/place", billing)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/api/v1/store", resp.Header.Get("Location"))

	resp, _ = user.do(http.MethodPost, "/api/v1/cart/add/"+lamp, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := user.do(http.MethodPost, "/api/v1/orders/place", map[string]string{"first_name": "Jane"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["errors"], "Email")

	resp, body = user.do(http.MethodPost, "/api/v1/orders/place", billing)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1000), body["subtotal"])
	assert.Equal(t, "15", body["tax"])
	assert.Equal(t, "1015", body["grand_total"])
	orderNumber := body["order"].(map[string]interface{})["order_number"].(string)
	assert.NotEmpty(t, orderNumber)

	paymentBody := map[string]interface{}{
		"order_number":   orderNumber,
		"payment_id":     "PAY-42",
		"payment_method": "PayPal",
		"amount_paid":    "1015.00",
		"status":         "COMPLETED",
	}

	// Anonymous payment attempts are rejected.
	resp, _ = s.client(t).do(http.MethodPost, "/api/v1/orders/payments", paymentBody)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = user.do(http.MethodPost, "/api/v1/orders/payments", map[string]string{"order_number": orderNumber})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	unknown := map[string]interface{}{}
	for k, v := range paymentBody {
		unknown[k] = v
	}
	unknown["order_number"] = "19990101999"
	resp, body = user.do(http.MethodPost, "/api/v1/orders/payments", unknown)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	resp, body = user.do(http.MethodPost, "/api/v1/orders/payments", paymentBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	redirect := body["redirect_url"].(string)
	assert.Equal(t, "/api/v1/orders/complete?order_number="+orderNumber+"&payment_id=PAY-42", redirect)

	// The order is final: a second payment finds no draft.
	resp, _ = user.do(http.MethodPost, "/api/v1/orders/payments", paymentBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = user.do(http.MethodGet, "/api/v1/cart/", nil)
	assert.Empty(t, cartItems(body))

	resp, body = s.client(t).do(http.MethodGet, redirect, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orderNumber, body["order_number"])
	assert.Equal(t, "PAY-42", body["transaction_id"])
	assert.Equal(t, float64(1000), body["subtotal"])
	assert.Len(t, body["ordered_products"], 1)

	resp, _ = s.client(t).do(http.MethodGet, "/api/v1/orders/complete?order_number="+orderNumber+"&payment_id=OTHER", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = s.client(t).do(http.MethodGet, "/api/v1/orders/complete", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	received := s.notifier.last(t, notify.TemplateOrderReceived)
	assert.Equal(t, "jane@example.com", received.Recipient)
	assert.Equal(t, orderNumber, received.Data["order_number"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+user.token)
	listResp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	var orders []map[string]interface{}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, orderNumber, orders[0]["order_number"])

	// Buyers can see they purchased the product.
	resp, body = user.do(http.MethodGet, "/api/v1/store/desk-lamp", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["user_has_purchased"])
}

func TestAuthEndpoints(t *testing.T) {
	s := setupApp(t)
	c := s.client(t)

	register := map[string]string{
		"first_name":       "Jane",
		"last_name":        "Doe",
		"phone_number":     "0123456789",
		"email":            "jane@example.com",
		"password":         "password123",
		"confirm_password": "password123",
	}

	resp, body := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation failed", body["message"])

	resp, _ = c.do(http.MethodPost, "/api/v1/auth/register", register)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = c.do(http.MethodPost, "/api/v1/auth/register", register)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Not activated yet.
	resp, _ = c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "jane@example.com", "password": "password123"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/api/v1/auth/activate/garbage", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/api/v1/auth/login", resp.Header.Get("Location"))

	link := s.notifier.last(t, notify.TemplateAccountVerification).Data["activation_url"].(string)
	resp, _ = c.do(http.MethodGet, strings.TrimPrefix(link, "http://shop.test"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "jane@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	c.login("jane@example.com", "password123")

	resp, body = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "jane@example.com", body["email"])
	assert.NotContains(t, body, "password")

	resp, body = c.do(http.MethodPut, "/api/v1/auth/me", map[string]string{"first_name": "Janet", "last_name": "Doe"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Janet", body["user"].(map[string]interface{})["first_name"])

	resp, _ = s.client(t).do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Password reset.
	resp, body = c.do(http.MethodPost, "/api/v1/auth/forgot-password", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Account does not exist!", body["message"])

	resp, _ = c.do(http.MethodPost, "/api/v1/auth/forgot-password", map[string]string{"email": "jane@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resetLink := s.notifier.last(t, notify.TemplatePasswordReset).Data["reset_url"].(string)

	resp, body = c.do(http.MethodGet, strings.TrimPrefix(resetLink, "http://shop.test"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resetToken := body["token"].(string)

	resp, _ = c.do(http.MethodPost, "/api/v1/auth/reset", map[string]string{
		"token":            resetToken,
		"password":         "newpassword1",
		"confirm_password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The link only works once.
	resp, _ = c.do(http.MethodGet, strings.TrimPrefix(resetLink, "http://shop.test"), nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	c.login("jane@example.com", "newpassword1")
}

func TestCatalogEndpoints(t *testing.T) {
	s := setupApp(t)
	c := s.client(t)

	resp, _ := c.do(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{"name": "Nope", "price": 1})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := c.admin(http.MethodPost, "/api/v1/admin/categories", map[string]string{"name": "Lighting"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "lighting", body["slug"])

	resp, body = c.admin(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{
		"name":        "Desk Lamp",
		"description": "A warm reading light",
		"price":       1000,
		"stock":       3,
		"categories":  []string{"lighting"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	lampID := body["id"].(string)
	createProduct(t, s, "Coffee Mug", 200, map[string]string{"color": "white", "size": "S,L"})

	resp, body = c.admin(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{"name": "X", "price": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation failed", body["message"])

	resp, body = c.do(http.MethodGet, "/api/v1/store/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["product_count"])

	resp, body = c.do(http.MethodGet, "/api/v1/store/category/lighting", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["product_count"])
	resp, _ = c.do(http.MethodGet, "/api/v1/store/category/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = c.do(http.MethodGet, "/api/v1/store/search?q=reading", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["product_count"])

	resp, body = c.do(http.MethodGet, "/api/v1/store/coffee-mug", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["colors"], 1)
	assert.Len(t, body["sizes"], 2)
	assert.Equal(t, false, body["user_has_purchased"])

	resp, _ = c.do(http.MethodGet, "/api/v1/store/no-such-product", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Reviews need an account; a second review replaces the first.
	resp, _ = c.do(http.MethodPost, "/api/v1/store/desk-lamp/reviews", map[string]interface{}{"rating": 4})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	user := registerAndLogin(t, s, "jane@example.com")
	resp, _ = user.do(http.MethodPost, "/api/v1/store/desk-lamp/reviews", map[string]interface{}{"subject": "Nice", "rating": 4})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = user.do(http.MethodPost, "/api/v1/store/desk-lamp/reviews", map[string]interface{}{"subject": "Great", "rating": 5})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = user.do(http.MethodPost, "/api/v1/store/desk-lamp/reviews", map[string]interface{}{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = c.do(http.MethodGet, "/api/v1/store/desk-lamp", nil)
	assert.Equal(t, float64(1), body["review_count"])
	assert.Equal(t, float64(5), body["avg_rating"])

	resp, body = c.admin(http.MethodPut, "/api/v1/admin/products/"+lampID, map[string]interface{}{
		"name":         "Desk Lamp",
		"price":        1200,
		"is_available": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1200), body["price"])

	_, body = c.do(http.MethodGet, "/api/v1/store/", nil)
	assert.Equal(t, float64(1), body["product_count"])

	resp, _ = c.admin(http.MethodDelete, "/api/v1/admin/products/"+lampID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = c.admin(http.MethodGet, "/api/v1/admin/products/"+lampID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
