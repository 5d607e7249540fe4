package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-library/internal/core/auth"
	"go-gin-library/internal/core/config"
	"go-gin-library/internal/feature/recommend"
	"go-gin-library/internal/repo/repotest"
	"go-gin-library/internal/service"
	resp "go-gin-library/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

type testEnv struct {
	api, admin *gin.Engine
	users      *service.UserService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	l := zap.NewNop()
	store := repotest.Store(t)
	j := &auth.JWTer{Secret: []byte("router-test"), Issuer: "library", TTL: time.Hour}
	users := service.NewUserService(store.Users(), j, l)
	catalog := service.NewCatalog(store.Books(), nil, l)
	ledger := service.NewLedger(store, service.DefaultLedgerConfig(), nil, l)
	lim := config.Limits{Concurrency: 16, MaxBodyBytes: 1 << 16, RequestTimeout: 10}

	api := NewAPIEngine(APIDeps{
		Log: l, JWT: j, Limits: lim,
		Catalog: catalog, Ledger: ledger, Users: users,
		Modules: []any{recommend.New(service.NewRecommender(store.Books(), nil), l)},
	})
	admin := NewAdminEngine(AdminDeps{Log: l, JWT: j, Limits: lim, Users: users, Ledger: ledger})

	_, err := users.EnsureAdmin(context.Background(), service.RegisterInput{
		Name: "Librarian", Email: "admin@library.test", Password: "admin12345",
	})
	require.NoError(t, err)
	return &testEnv{api: api, admin: admin, users: users}
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) resp.Resp {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var out resp.Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func data(t *testing.T, r resp.Resp) map[string]any {
	t.Helper()
	require.Equalf(t, resp.CodeOK, r.Code, "unexpected envelope: %s", r.Msg)
	m, ok := r.Data.(map[string]any)
	require.True(t, ok)
	return m
}

func (e *testEnv) signup(t *testing.T, name string) (id, token string) {
	t.Helper()
	email := name + "@library.test"
	out := data(t, call(t, e.api, http.MethodPost, "/api/v1/user/register", "", gin.H{
		"name": name, "email": email, "password": "hunter22",
	}))
	id = out["id"].(string)
	out = data(t, call(t, e.api, http.MethodPost, "/api/v1/user/login", "", gin.H{
		"email": email, "password": "hunter22",
	}))
	return id, out["token"].(string)
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	out := data(t, call(t, e.api, http.MethodPost, "/api/v1/user/login", "", gin.H{
		"email": "admin@library.test", "password": "admin12345",
	}))
	return out["token"].(string)
}

func (e *testEnv) addBook(t *testing.T, admin, title, author string, qty int) string {
	t.Helper()
	out := data(t, call(t, e.api, http.MethodPost, "/api/v1/book/addbooks", admin, gin.H{
		"ISBN": "isbn-" + title, "title": title, "author": author, "publishedYear": 2001, "quantity": qty,
	}))
	return out["id"].(string)
}

func TestAPI_BorrowReturnFlow(t *testing.T) {
	e := newEnv(t)
	admin := e.adminToken(t)
	u1, tok1 := e.signup(t, "alice")
	_, tok2 := e.signup(t, "bob")
	book := e.addBook(t, admin, "Kindred", "Octavia E. Butler", 1)

	out := data(t, call(t, e.api, http.MethodPost, "/api/v1/borrow/borrowbooks", tok1, gin.H{"bookId": book}))
	assert.Equal(t, "Book borrowed successfully.", out["message"])
	recordID := out["borrowRecordId"].(string)
	assert.NotEmpty(t, out["expectedReturnDate"])

	r := call(t, e.api, http.MethodPost, "/api/v1/borrow/borrowbooks", tok2, gin.H{"bookId": book})
	assert.Equal(t, resp.CodeBadRequest, r.Code)
	assert.Equal(t, "Book not available for borrowing.", r.Msg)

	r = call(t, e.api, http.MethodPost, "/api/v1/borrow/returnbooks", tok2, gin.H{"borrowedBookId": recordID})
	assert.Equal(t, resp.CodeNotFound, r.Code, "members cannot return someone else's loan")

	out = data(t, call(t, e.api, http.MethodPost, "/api/v1/borrow/returnbooks", tok1, gin.H{"borrowedBookId": recordID}))
	assert.Equal(t, "Book returned successfully.", out["message"])
	first := out["returnDate"]

	out = data(t, call(t, e.api, http.MethodPost, "/api/v1/borrow/returnbooks", tok1, gin.H{"borrowedBookId": recordID}))
	assert.Equal(t, true, out["alreadyReturned"])
	assert.Equal(t, first, out["returnDate"])

	out = data(t, call(t, e.api, http.MethodGet, "/api/v1/book/"+book, "", nil))
	assert.EqualValues(t, 1, out["quantity"])

	data(t, call(t, e.api, http.MethodPost, "/api/v1/borrow/borrowbooks", tok2, gin.H{"bookId": book}))

	out = data(t, call(t, e.api, http.MethodGet, "/api/v1/borrow/user/"+u1, tok1, nil))
	assert.Len(t, out["borrowedBooks"], 1)

	r = call(t, e.api, http.MethodGet, "/api/v1/borrow/user/"+u1, tok2, nil)
	assert.Equal(t, resp.CodeForbidden, r.Code)

	out = data(t, call(t, e.api, http.MethodGet, "/api/v1/borrow/user/"+u1, admin, nil))
	assert.Len(t, out["borrowedBooks"], 1)

	r = call(t, e.api, http.MethodPost, "/api/v1/borrow/returnbooks", tok1, gin.H{"borrowedBookId": "missing"})
	assert.Equal(t, resp.CodeNotFound, r.Code)
	assert.Equal(t, "Borrowed book record not found.", r.Msg)
}

func TestAPI_BorrowLimit(t *testing.T) {
	e := newEnv(t)
	admin := e.adminToken(t)
	_, tok := e.signup(t, "carol")
	var books []string
	for _, title := range []string{"A", "B", "C", "D"} {
		books = append(books, e.addBook(t, admin, title, "Various", 2))
	}
	for _, b := range books[:3] {
		data(t, call(t, e.api, http.MethodPost, "/api/v1/borrow/borrowbooks", tok, gin.H{"bookId": b}))
	}
	r := call(t, e.api, http.MethodPost, "/api/v1/borrow/borrowbooks", tok, gin.H{"bookId": books[3]})
	assert.Equal(t, resp.CodeBadRequest, r.Code)
	assert.Equal(t, "You have already borrowed 3 books.", r.Msg)
}

func TestAPI_BorrowOnBehalf(t *testing.T) {
	e := newEnv(t)
	admin := e.adminToken(t)
	u1, tok1 := e.signup(t, "dave")
	u2, _ := e.signup(t, "erin")
	book := e.addBook(t, admin, "Dawn", "Octavia E. Butler", 3)

	r := call(t, e.api, http.MethodPost, "/api/v1/borrow/borrowbooks", tok1, gin.H{"userId": u2, "bookId": book})
	assert.Equal(t, resp.CodeForbidden, r.Code)

	data(t, call(t, e.api, http.MethodPost, "/api/v1/borrow/borrowbooks", tok1, gin.H{"userId": u1, "bookId": book}))
	data(t, call(t, e.api, http.MethodPost, "/api/v1/borrow/borrowbooks", admin, gin.H{"userId": u2, "bookId": book}))

	out := data(t, call(t, e.admin, http.MethodGet, "/admin/v1/borrows?outstanding=true", admin, nil))
	assert.EqualValues(t, 2, out["total"])
}

func TestAPI_CatalogGate(t *testing.T) {
	e := newEnv(t)
	admin := e.adminToken(t)
	_, tok := e.signup(t, "frank")

	r := call(t, e.api, http.MethodPost, "/api/v1/book/addbooks", "", gin.H{"title": "X"})
	assert.Equal(t, resp.CodeUnauthorized, r.Code)
	r = call(t, e.api, http.MethodPost, "/api/v1/book/addbooks", tok, gin.H{"title": "X"})
	assert.Equal(t, resp.CodeForbidden, r.Code)

	id := e.addBook(t, admin, "Parable of the Sower", "Octavia E. Butler", 2)

	out := data(t, call(t, e.api, http.MethodPatch, "/api/v1/book/update/"+id, admin, gin.H{"quantity": 5}))
	assert.Equal(t, "Book updated successfully.", out["message"])
	out = data(t, call(t, e.api, http.MethodGet, "/api/v1/book/"+id, "", nil))
	assert.EqualValues(t, 5, out["quantity"])
	assert.Equal(t, "Parable of the Sower", out["title"])

	r = call(t, e.api, http.MethodPatch, "/api/v1/book/update/"+id, admin, gin.H{"quantity": -2})
	assert.Equal(t, resp.CodeBadRequest, r.Code)

	out = data(t, call(t, e.api, http.MethodGet, "/api/v1/book/search?search=SOWER", "", nil))
	assert.Len(t, out["results"], 1)
	out = data(t, call(t, e.api, http.MethodGet, "/api/v1/book/getbooks", "", nil))
	assert.Len(t, out["books"], 1)

	out = data(t, call(t, e.api, http.MethodGet, "/api/v1/recommendations/author/Octavia%20E.%20Butler", "", nil))
	assert.Len(t, out["recommendations"], 1)

	data(t, call(t, e.api, http.MethodDelete, "/api/v1/book/delete/"+id, admin, nil))
	r = call(t, e.api, http.MethodGet, "/api/v1/book/"+id, "", nil)
	assert.Equal(t, resp.CodeNotFound, r.Code)
	assert.Equal(t, "Book not found.", r.Msg)
	r = call(t, e.api, http.MethodDelete, "/api/v1/book/delete/"+id, admin, nil)
	assert.Equal(t, resp.CodeNotFound, r.Code)
}

func TestAPI_Accounts(t *testing.T) {
	e := newEnv(t)
	id, tok := e.signup(t, "grace")

	out := data(t, call(t, e.api, http.MethodGet, "/api/v1/me", tok, nil))
	assert.Equal(t, id, out["id"])
	assert.Equal(t, "user", out["role"])
	assert.NotContains(t, out, "passwordHash")

	r := call(t, e.api, http.MethodPost, "/api/v1/user/register", "", gin.H{
		"name": "Grace 2", "email": "grace@library.test", "password": "hunter22",
	})
	assert.Equal(t, resp.CodeConflict, r.Code)

	r = call(t, e.api, http.MethodPost, "/api/v1/user/login", "", gin.H{
		"email": "grace@library.test", "password": "nope-nope",
	})
	assert.Equal(t, resp.CodeUnauthorized, r.Code)
	assert.Equal(t, "Invalid email or password.", r.Msg)

	r = call(t, e.api, http.MethodPost, "/api/v1/user/register", "", gin.H{"name": "x", "email": "bad"})
	assert.Equal(t, resp.CodeBadRequest, r.Code)
}

func TestAdmin_UsersBanAndRole(t *testing.T) {
	e := newEnv(t)
	admin := e.adminToken(t)
	id, tok := e.signup(t, "heidi")

	r := call(t, e.admin, http.MethodGet, "/admin/v1/users", tok, nil)
	assert.Equal(t, resp.CodeForbidden, r.Code)

	out := data(t, call(t, e.admin, http.MethodGet, "/admin/v1/users?q=heidi", admin, nil))
	assert.EqualValues(t, 1, out["total"])

	r = call(t, e.admin, http.MethodPost, "/admin/v1/users/"+id+"/role", admin, gin.H{"role": "wizard"})
	assert.Equal(t, resp.CodeBadRequest, r.Code)
	data(t, call(t, e.admin, http.MethodPost, "/admin/v1/users/"+id+"/role", admin, gin.H{"role": "admin"}))
	u, err := e.users.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)

	data(t, call(t, e.admin, http.MethodPost, "/admin/v1/users/"+id+"/ban", admin, nil))
	r = call(t, e.admin, http.MethodPost, "/admin/v1/users/"+id+"/ban", admin, nil)
	assert.Equal(t, resp.CodeNotFound, r.Code)

	out = data(t, call(t, e.admin, http.MethodGet, "/admin/v1/users?with_deleted=true", admin, nil))
	assert.EqualValues(t, 2, out["total"])
}

func TestOpsEndpoints(t *testing.T) {
	e := newEnv(t)
	for _, h := range []http.Handler{e.api, e.admin} {
		data(t, call(t, h, http.MethodGet, "/health", "", nil))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "http_requests_total")
	}
}

type probeModule struct{ mounted *int }

func (p probeModule) MountAPI(g *gin.RouterGroup) {
	*p.mounted++
	g.GET("/probe", func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })
}
func (p probeModule) Priority() int { return 1 }

func TestRegistry_MountsModules(t *testing.T) {
	n := 0
	reg := NewRegistry(probeModule{mounted: &n}, struct{}{})
	r := gin.New()
	reg.MountAPI(r.Group("/api"))
	reg.MountAdmin(r.Group("/admin"))
	assert.Equal(t, 1, n)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/probe", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
