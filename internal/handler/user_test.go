package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/middleware"
	"github.com/labregistry/lab-registry/internal/model"
)

type userFixture struct {
	handler  *UserHandler
	users    *memUserStore
	sessions *memSessionStore
	audits   *memAuditStore
	registry *auth.SessionRegistry
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	users := newMemUserStore()
	sessions := newMemSessionStore()
	audits := &memAuditStore{}
	reg := auth.NewSessionRegistry(auth.NewTokenCodec("test-secret"), users, sessions)
	return &userFixture{
		handler:  NewUserHandler(users, reg, auth.NewSink(audits, nil)),
		users:    users,
		sessions: sessions,
		audits:   audits,
		registry: reg,
	}
}

func (fx *userFixture) seed(role model.Role, email string) model.User {
	return fx.users.put(model.User{Email: email, PasswordHash: "x", Role: role, IsActive: true})
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func asActor(u model.User) func(echo.Context) {
	return func(c echo.Context) { middleware.SetCurrentUser(c, u) }
}

func withParamID(u model.User, id string) func(echo.Context) {
	return func(c echo.Context) {
		middleware.SetCurrentUser(c, u)
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
}

func TestCreateUserByAdmin(t *testing.T) {
	fx := newUserFixture(t)
	admin := fx.seed(model.RoleAdmin, "chief@lab.test")

	rec := callHandler(fx.handler.Create,
		jsonRequest(http.MethodPost, "/v1/users",
			`{"email":"novo@lab.test","password":"provisional1","role":"TÉCNICO"}`),
		asActor(admin))
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID                 uint64     `json:"id"`
		Email              string     `json:"email"`
		Role               model.Role `json:"role"`
		MustChangePassword bool       `json:"must_change_password"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Role != model.RoleTecnico {
		t.Errorf("role = %q", resp.Role)
	}
	if !resp.MustChangePassword {
		t.Error("must_change_password should default to true")
	}

	stored := fx.users.get(resp.ID)
	if stored.CreatedBy == nil || *stored.CreatedBy != admin.ID {
		t.Error("created_by not set to the acting admin")
	}
	if !auth.VerifyPassword(stored.PasswordHash, "provisional1") {
		t.Error("stored hash does not verify the provisional password")
	}
	if got := fx.audits.byAction(model.ActionUserCreated); len(got) != 1 {
		t.Errorf("USER_CREATED entries = %d, want 1", len(got))
	}
}

func TestProfessorCannotCreateAdmin(t *testing.T) {
	fx := newUserFixture(t)
	prof := fx.seed(model.RoleProfessor, "prof@lab.test")

	rec := callHandler(fx.handler.Create,
		jsonRequest(http.MethodPost, "/v1/users",
			`{"email":"boss@lab.test","password":"provisional1","role":"ADMIN"}`),
		asActor(prof))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403", rec.Code)
	}
	if fx.users.createCalls != 0 {
		t.Errorf("createCalls = %d, the store must not be touched on a denial", fx.users.createCalls)
	}
	if got := fx.audits.byAction(model.ActionUnauthorizedAccess); len(got) != 1 {
		t.Errorf("UNAUTHORIZED_ACCESS_ATTEMPT entries = %d, want 1", len(got))
	}
	// A professor may still create the bench roles.
	rec = callHandler(fx.handler.Create,
		jsonRequest(http.MethodPost, "/v1/users",
			`{"email":"vol@lab.test","password":"provisional1","role":"VOLUNTÁRIO"}`),
		asActor(prof))
	if rec.Code != http.StatusCreated {
		t.Errorf("voluntário create code = %d, want 201", rec.Code)
	}
}

func TestCreateUserValidation(t *testing.T) {
	fx := newUserFixture(t)
	admin := fx.seed(model.RoleAdmin, "chief@lab.test")

	for name, body := range map[string]string{
		"short password": `{"email":"a@lab.test","password":"short77","role":"TÉCNICO"}`,
		"unknown role":   `{"email":"a@lab.test","password":"provisional1","role":"INTERN"}`,
		"missing email":  `{"password":"provisional1","role":"TÉCNICO"}`,
	} {
		rec := callHandler(fx.handler.Create,
			jsonRequest(http.MethodPost, "/v1/users", body), asActor(admin))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d, want 400", name, rec.Code)
		}
	}
	if fx.users.createCalls != 0 {
		t.Errorf("createCalls = %d after rejected inputs", fx.users.createCalls)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	fx := newUserFixture(t)
	admin := fx.seed(model.RoleAdmin, "chief@lab.test")
	fx.seed(model.RoleTecnico, "dup@lab.test")

	rec := callHandler(fx.handler.Create,
		jsonRequest(http.MethodPost, "/v1/users",
			`{"email":"dup@lab.test","password":"provisional1","role":"TÉCNICO"}`),
		asActor(admin))
	if rec.Code != http.StatusConflict {
		t.Errorf("code = %d, want 409", rec.Code)
	}
}

func TestSetRoleAdminOnly(t *testing.T) {
	fx := newUserFixture(t)
	prof := fx.seed(model.RoleProfessor, "prof@lab.test")
	target := fx.seed(model.RoleVoluntario, "vol@lab.test")

	rec := callHandler(fx.handler.SetRole,
		jsonRequest(http.MethodPut, "/v1/users/:id/role", `{"role":"TÉCNICO"}`),
		withParamID(prof, itoa(target.ID)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("professor role change code = %d, want 403", rec.Code)
	}
	if fx.users.get(target.ID).Role != model.RoleVoluntario {
		t.Error("role changed despite denial")
	}

	admin := fx.seed(model.RoleAdmin, "chief@lab.test")
	rec = callHandler(fx.handler.SetRole,
		jsonRequest(http.MethodPut, "/v1/users/:id/role", `{"role":"TÉCNICO"}`),
		withParamID(admin, itoa(target.ID)))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin role change code = %d, body = %s", rec.Code, rec.Body.String())
	}
	if fx.users.get(target.ID).Role != model.RoleTecnico {
		t.Error("role not updated")
	}
	if got := fx.audits.byAction(model.ActionUserUpdated); len(got) != 1 {
		t.Errorf("USER_UPDATED entries = %d, want 1", len(got))
	}
}

func TestDeactivateRevokesSessions(t *testing.T) {
	fx := newUserFixture(t)
	admin := fx.seed(model.RoleAdmin, "chief@lab.test")
	target := fx.seed(model.RoleTecnico, "tec@lab.test")

	if _, _, _, err := fx.registry.Create(t.Context(), target, "10.0.0.2", "curl/8"); err != nil {
		t.Fatalf("session create: %v", err)
	}
	if _, _, _, err := fx.registry.Create(t.Context(), target, "10.0.0.3", "curl/8"); err != nil {
		t.Fatalf("session create: %v", err)
	}

	rec := callHandler(fx.handler.Deactivate,
		httptest.NewRequest(http.MethodDelete, "/v1/users/:id", nil),
		withParamID(admin, itoa(target.ID)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %d, want 204", rec.Code)
	}
	if fx.users.get(target.ID).IsActive {
		t.Error("target still active")
	}
	if fx.sessions.count() != 0 {
		t.Errorf("sessions left after deactivation = %d, want 0", fx.sessions.count())
	}
	if got := fx.audits.byAction(model.ActionUserDeleted); len(got) != 1 {
		t.Errorf("USER_DELETED entries = %d, want 1", len(got))
	}
}

func TestDeactivateSelfDenied(t *testing.T) {
	fx := newUserFixture(t)
	admin := fx.seed(model.RoleAdmin, "chief@lab.test")

	rec := callHandler(fx.handler.Deactivate,
		httptest.NewRequest(http.MethodDelete, "/v1/users/:id", nil),
		withParamID(admin, itoa(admin.ID)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403", rec.Code)
	}
	if !fx.users.get(admin.ID).IsActive {
		t.Error("actor deactivated itself")
	}
	if got := fx.audits.byAction(model.ActionUnauthorizedAccess); len(got) != 1 {
		t.Errorf("UNAUTHORIZED_ACCESS_ATTEMPT entries = %d, want 1", len(got))
	}
}

func TestProfessorDeactivationScope(t *testing.T) {
	fx := newUserFixture(t)
	prof := fx.seed(model.RoleProfessor, "prof@lab.test")
	admin := fx.seed(model.RoleAdmin, "chief@lab.test")
	otherProf := fx.seed(model.RoleProfessor, "prof2@lab.test")
	tec := fx.seed(model.RoleTecnico, "tec@lab.test")

	for _, target := range []model.User{admin, otherProf} {
		rec := callHandler(fx.handler.Deactivate,
			httptest.NewRequest(http.MethodDelete, "/v1/users/:id", nil),
			withParamID(prof, itoa(target.ID)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("deactivate %s: code = %d, want 403", target.Role, rec.Code)
		}
		if !fx.users.get(target.ID).IsActive {
			t.Errorf("%s deactivated despite denial", target.Role)
		}
	}

	rec := callHandler(fx.handler.Deactivate,
		httptest.NewRequest(http.MethodDelete, "/v1/users/:id", nil),
		withParamID(prof, itoa(tec.ID)))
	if rec.Code != http.StatusNoContent {
		t.Errorf("deactivate técnico: code = %d, want 204", rec.Code)
	}
}

func TestReactivateAdminOnly(t *testing.T) {
	fx := newUserFixture(t)
	prof := fx.seed(model.RoleProfessor, "prof@lab.test")
	admin := fx.seed(model.RoleAdmin, "chief@lab.test")
	off := fx.users.put(model.User{Email: "off@lab.test", PasswordHash: "x", Role: model.RoleTecnico, IsActive: false})

	rec := callHandler(fx.handler.Reactivate,
		httptest.NewRequest(http.MethodPost, "/v1/users/:id/reactivate", nil),
		withParamID(prof, itoa(off.ID)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("professor reactivate code = %d, want 403", rec.Code)
	}
	if fx.users.get(off.ID).IsActive {
		t.Error("reactivated despite denial")
	}

	rec = callHandler(fx.handler.Reactivate,
		httptest.NewRequest(http.MethodPost, "/v1/users/:id/reactivate", nil),
		withParamID(admin, itoa(off.ID)))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin reactivate code = %d", rec.Code)
	}
	if !fx.users.get(off.ID).IsActive {
		t.Error("target still inactive")
	}
}

func TestGetUnknownUser(t *testing.T) {
	fx := newUserFixture(t)
	admin := fx.seed(model.RoleAdmin, "chief@lab.test")

	rec := callHandler(fx.handler.Get,
		httptest.NewRequest(http.MethodGet, "/v1/users/:id", nil),
		withParamID(admin, "999"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
}
