package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"feastfleet/ai"
	"feastfleet/auth"
	"feastfleet/handlers"
	"feastfleet/middleware"
	"feastfleet/models"
	"feastfleet/notify"
	"feastfleet/orders"
	"feastfleet/recipes"
	"feastfleet/session"
	"feastfleet/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T, dataFile string) *api {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	db := store.OpenJSON(dataFile, log)
	sessions := session.NewMemoryStore()
	h := &handlers.Handler{
		Store:           db,
		Auth:            auth.NewService(db, log),
		Tokens:          middleware.NewTokens([]byte("test-secret"), time.Hour),
		Orders:          orders.NewService(db, sessions, notify.New(nil, "+91", log), nil, log, orders.Options{}),
		Sessions:        sessions,
		AI:              ai.New(nil, nil, log),
		Recipes:         recipes.NewScraper(&http.Client{Timeout: time.Second}, recipes.DefaultSites(), log),
		DefaultLocation: models.Location{Lat: 12.9716, Lng: 77.5946},
		StreamInterval:  10 * time.Millisecond,
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	SetupRoutes(r, h)
	return &api{t: t, router: r}
}

func (a *api) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (a *api) register(name, email string, userType models.UserType) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": "secret1", "user_type": userType, "phone": "9876543210",
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	return body["token"].(string)
}

// world is a vendor with one restaurant and two dishes, plus a customer
type world struct {
	*api
	vendor, customer string
	restaurantID     string
	dalID, rotiID    string
}

func newWorld(t *testing.T) *world {
	t.Helper()
	a := newAPI(t, filepath.Join(t.TempDir(), "app_data.json"))
	w := &world{api: a}
	w.vendor = a.register("Asha", "asha@example.com", models.UserVendor)
	w.customer = a.register("Ravi", "ravi@example.com", models.UserCustomer)

	code, body := a.do(http.MethodPost, "/api/vendor/restaurants", w.vendor, gin.H{
		"name": "Spice Route", "description": "North Indian", "cuisine": "Indian",
		"address": "MG Road", "lat": 12.97, "lng": 77.59,
	})
	require.Equal(t, http.StatusCreated, code, body)
	w.restaurantID = body["restaurant"].(map[string]any)["id"].(string)

	w.dalID = w.addItem("Dal Makhani", 120)
	w.rotiID = w.addItem("Butter Roti", 20.5)
	return w
}

func (w *world) addItem(name string, price float64) string {
	w.t.Helper()
	code, body := w.do(http.MethodPost, "/api/vendor/restaurants/"+w.restaurantID+"/menu", w.vendor, gin.H{
		"name": name, "price": price, "category": "Main Course", "is_veg": true,
	})
	require.Equal(w.t, http.StatusCreated, code, body)
	return body["item"].(map[string]any)["id"].(string)
}

func (w *world) placeOrder() string {
	w.t.Helper()
	code, body := w.do(http.MethodPost, "/api/customer/cart/items", w.customer, gin.H{"menu_item_id": w.dalID})
	require.Equal(w.t, http.StatusOK, code, body)
	code, body = w.do(http.MethodPost, "/api/customer/checkout", w.customer, gin.H{
		"delivery_address": "12 Park Street", "location": gin.H{"lat": 12.98, "lng": 77.60},
	})
	require.Equal(w.t, http.StatusCreated, code, body)
	return body["order"].(map[string]any)["id"].(string)
}

func TestHealth(t *testing.T) {
	a := newAPI(t, filepath.Join(t.TempDir(), "app_data.json"))
	code, body := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	a := newAPI(t, filepath.Join(t.TempDir(), "app_data.json"))
	a.register("Ravi", "ravi@example.com", models.UserCustomer)

	code, body := a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Other", "email": "RAVI@example.com", "password": "secret1", "user_type": "customer",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email already registered", body["error"])

	code, body = a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Admin", "email": "root@example.com", "password": "secret1", "user_type": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = a.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ravi@example.com", "password": "secret1", "user_type": "customer",
	})
	require.Equal(t, http.StatusOK, code, body)
	token := body["token"].(string)
	user := body["user"].(map[string]any)
	assert.NotContains(t, user, "password_hash")

	code, _ = a.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ravi@example.com", "password": "secret1", "user_type": "vendor",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = a.do(http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Ravi", body["user"].(map[string]any)["name"])
}

func TestRoleGates(t *testing.T) {
	w := newWorld(t)

	code, _ := w.do(http.MethodGet, "/api/customer/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = w.do(http.MethodGet, "/api/customer/cart", w.vendor, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = w.do(http.MethodGet, "/api/vendor/orders", w.customer, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestListRestaurants(t *testing.T) {
	w := newWorld(t)
	code, body := w.do(http.MethodPost, "/api/vendor/restaurants", w.vendor, gin.H{
		"name": "Anand Bhavan", "description": "South Indian", "cuisine": "Udupi",
		"address": "Brigade Road", "lat": 12.975, "lng": 77.605,
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = w.do(http.MethodGet, "/api/restaurants?lat=12.97&lng=77.59&sort=name", "", nil)
	require.Equal(t, http.StatusOK, code, body)
	list := body["restaurants"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "Anand Bhavan", list[0].(map[string]any)["name"])

	code, body = w.do(http.MethodGet, "/api/restaurants?lat=12.97&lng=77.59&search=udupi", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, _ = w.do(http.MethodGet, "/api/restaurants?sort=price", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// far away from everything
	code, body = w.do(http.MethodGet, "/api/restaurants?lat=28.61&lng=77.20", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["count"])

	code, _ = w.do(http.MethodGet, "/api/restaurants/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCartRejectsSecondRestaurant(t *testing.T) {
	w := newWorld(t)
	code, body := w.do(http.MethodPost, "/api/vendor/restaurants", w.vendor, gin.H{
		"name": "Pizza Point", "description": "Pizza", "cuisine": "Italian", "address": "Church Street",
	})
	require.Equal(t, http.StatusCreated, code, body)
	otherRestaurant := body["restaurant"].(map[string]any)["id"].(string)
	code, body = w.do(http.MethodPost, "/api/vendor/restaurants/"+otherRestaurant+"/menu", w.vendor, gin.H{
		"name": "Margherita", "price": 299,
	})
	require.Equal(t, http.StatusCreated, code, body)
	pizza := body["item"].(map[string]any)["id"].(string)

	code, _ = w.do(http.MethodPost, "/api/customer/cart/items", w.customer, gin.H{"menu_item_id": w.dalID})
	require.Equal(t, http.StatusOK, code)
	code, body = w.do(http.MethodPost, "/api/customer/cart/items", w.customer, gin.H{"menu_item_id": pizza})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body["error"], "one restaurant")

	code, body = w.do(http.MethodGet, "/api/customer/cart", w.customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["item_count"])
	assert.EqualValues(t, 120, body["total"])

	code, _ = w.do(http.MethodDelete, "/api/customer/cart/items/"+w.rotiID, w.customer, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCheckoutEmptyCart(t *testing.T) {
	w := newWorld(t)
	code, body := w.do(http.MethodPost, "/api/customer/checkout", w.customer, gin.H{"delivery_address": "12 Park Street"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, orders.ErrEmptyCart.Error(), body["error"])
}

func TestOrderLifecycle(t *testing.T) {
	w := newWorld(t)
	orderID := w.placeOrder()

	code, body := w.do(http.MethodGet, "/api/customer/cart", w.customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["item_count"])

	code, body = w.do(http.MethodGet, "/api/vendor/orders?status=confirmed", w.vendor, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["count"])

	for _, step := range []struct {
		action string
		status models.OrderStatus
	}{
		{"accept", models.StatusPreparing},
		{"ready", models.StatusOutForDelivery},
		{"deliver", models.StatusDelivered},
	} {
		code, body = w.do(http.MethodPut, "/api/vendor/orders/"+orderID+"/"+step.action, w.vendor, nil)
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, string(step.status), body["current_status"])
	}

	code, body = w.do(http.MethodPut, "/api/vendor/orders/"+orderID+"/reject", w.vendor, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "delivered", body["current_status"])
	assert.Empty(t, body["valid_next_states"])

	code, _ = w.do(http.MethodPut, "/api/vendor/orders/"+orderID+"/advance", w.vendor, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = w.do(http.MethodGet, "/api/customer/orders", w.customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])
	assert.EqualValues(t, 0, body["active"])
}

func TestCustomerCancelAndOwnership(t *testing.T) {
	w := newWorld(t)
	orderID := w.placeOrder()
	stranger := w.register("Meera", "meera@example.com", models.UserCustomer)

	code, _ := w.do(http.MethodGet, "/api/customer/orders/"+orderID, stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := w.do(http.MethodGet, "/api/customer/orders/"+orderID, w.customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"cancel"}, body["actions"])

	code, body = w.do(http.MethodPut, "/api/customer/orders/"+orderID+"/cancel", w.customer, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "cancelled", body["order"].(map[string]any)["status"])

	code, _ = w.do(http.MethodPut, "/api/customer/orders/"+orderID+"/cancel", w.customer, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = w.do(http.MethodGet, "/api/customer/orders/order999", w.customer, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestReorder(t *testing.T) {
	w := newWorld(t)
	orderID := w.placeOrder()

	code, body := w.do(http.MethodPost, "/api/customer/orders/"+orderID+"/reorder", w.customer, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Empty(t, body["skipped"])

	code, _ = w.do(http.MethodPut, "/api/vendor/menu/"+w.dalID, w.vendor, gin.H{
		"name": "Dal Makhani", "price": 130, "is_available": false,
	})
	require.Equal(t, http.StatusOK, code)

	code, body = w.do(http.MethodPost, "/api/customer/orders/"+orderID+"/reorder", w.customer, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, []any{"Dal Makhani"}, body["skipped"])
}

func TestTracking(t *testing.T) {
	w := newWorld(t)
	orderID := w.placeOrder()

	code, body := w.do(http.MethodGet, "/api/customer/orders/"+orderID+"/track", w.customer, nil)
	require.Equal(t, http.StatusOK, code, body)
	tracking := body["tracking"].(map[string]any)
	assert.InDelta(t, 0.25, tracking["status_progress"], 1e-9)
	assert.EqualValues(t, orders.RefreshAfterSeconds, tracking["refresh_after_seconds"])
	assert.NotContains(t, tracking, "agent")
	assert.NotContains(t, tracking, "progress")

	code, _ = w.do(http.MethodPut, "/api/vendor/orders/"+orderID+"/accept", w.vendor, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = w.do(http.MethodPut, "/api/vendor/orders/"+orderID+"/ready", w.vendor, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = w.do(http.MethodGet, "/api/customer/orders/"+orderID+"/track", w.customer, nil)
	require.Equal(t, http.StatusOK, code, body)
	tracking = body["tracking"].(map[string]any)
	assert.InDelta(t, 0.1, tracking["progress"], 1e-9)
	assert.InDelta(t, 0.75, tracking["status_progress"], 1e-9)
	assert.Equal(t, "Rahul S.", tracking["agent"].(map[string]any)["name"])

	code, body = w.do(http.MethodGet, "/api/vendor/orders/"+orderID+"/track", w.vendor, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body["tracking"], "agent")

	stranger := w.register("Meera", "meera@example.com", models.UserCustomer)
	code, _ = w.do(http.MethodGet, "/api/customer/orders/"+orderID+"/track", stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

// closeNotifyRecorder lets gin's Stream run against a recorder
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool { return r.closed }

func TestTrackingStreamEndsWhenDelivered(t *testing.T) {
	w := newWorld(t)
	orderID := w.placeOrder()
	for _, action := range []string{"accept", "ready", "deliver"} {
		code, _ := w.do(http.MethodPut, "/api/vendor/orders/"+orderID+"/"+action, w.vendor, nil)
		require.Equal(t, http.StatusOK, code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/customer/orders/"+orderID+"/track/stream", nil)
	req.Header.Set("Authorization", "Bearer "+w.customer)
	rec := &closeNotifyRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	w.router.ServeHTTP(rec, req)

	out := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, out, "event:tracking")
	assert.Contains(t, out, "event:done")
	assert.Equal(t, 1, strings.Count(out, "event:tracking"))
}

func TestRecipeEndpoints(t *testing.T) {
	a := newAPI(t, filepath.Join(t.TempDir(), "app_data.json"))

	code, body := a.do(http.MethodGet, "/api/recipes/videos?q=indian+chicken&max=3", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["count"])

	code, _ = a.do(http.MethodGet, "/api/recipes/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	for _, target := range []string{
		"ftp://example.com/x",
		"http://127.0.0.1/latest",
		"http://169.254.169.254/latest/meta-data",
		"http://localhost:8080/health",
	} {
		code, body = a.do(http.MethodGet, "/api/recipes/details?url="+url.QueryEscape(target), "", nil)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.Equal(t, recipes.ErrSiteNotAllowed.Error(), body["error"], target)
	}
}

func TestAIUnavailableWithoutKey(t *testing.T) {
	a := newAPI(t, filepath.Join(t.TempDir(), "app_data.json"))
	token := a.register("Ravi", "ravi@example.com", models.UserCustomer)

	code, body := a.do(http.MethodPost, "/api/ai/recipes", token, gin.H{"name": "Paneer Tikka"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, false, body["success"])

	code, _ = a.do(http.MethodPost, "/api/ai/recipes", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUnwritableDataFileWarns(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	a := newAPI(t, filepath.Join(blocker, "app_data.json"))

	code, body := a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Ravi", "email": "ravi@example.com", "password": "secret1", "user_type": "customer",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.NotEmpty(t, body["warning"])
	assert.NotEmpty(t, body["token"])

	// the user lives on in memory
	code, _ = a.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ravi@example.com", "password": "secret1", "user_type": "customer",
	})
	assert.Equal(t, http.StatusOK, code)
}
