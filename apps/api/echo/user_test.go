package echoapi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/trezcool/ngoma/core/user"
)

func Test_userApi_login(t *testing.T) {
	activeUsr := createTestUser(t, "Awa Cisse", "awacisse", "awa@test.cd", "LeFameux", user.StudentRoles, true)
	createTestUser(t, "Idle Moyo", "idlemoyo", "idle@test.cd", "LeFameux", user.StudentRoles, false)

	tests := []httpTest{
		{
			name:     "empty body",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "user not found",
			body:     []byte(`{"username": "ghost", "password": "LeFameux"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "wrong password",
			body:     []byte(`{"username": "awacisse", "password": "nope"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "deactivated account",
			body:     []byte(`{"username": "idlemoyo", "password": "LeFameux"}`),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "login by username",
			body:     []byte(`{"username": "awacisse", "password": "LeFameux"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "login by email",
			body:     []byte(`{"username": "awa@test.cd", "password": "LeFameux"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCode(t, tt, rec)

			env := decodeEnvelope(t, rec)
			if tt.wantCode == http.StatusOK {
				if !env.Success {
					t.Errorf("envelope.Success = false, want true")
				}
				data, _ := env.Data.(map[string]interface{})
				if token, _ := data["token"].(string); token == "" {
					t.Errorf("envelope.Data missing token")
				}
				if usr, _ := data["user"].(map[string]interface{}); usr["id"] != activeUsr.ID {
					t.Errorf("envelope.Data user.id = %v, want %s", usr["id"], activeUsr.ID)
				}
			} else {
				if env.Success {
					t.Errorf("envelope.Success = true, want false")
				}
				if env.Error == nil {
					t.Errorf("envelope.Error is empty")
				}
			}
		})
	}
}

func Test_userApi_signup(t *testing.T) {
	body := []byte(`{
		"name": "Didi Kalombo",
		"username": "didikalombo",
		"email": "didi@test.cd",
		"password": "LeFameux",
		"password_confirm": "LeFameux",
		"roles": ["admin:owner"]
	}`)

	req, rec := newRequest(http.MethodPost, "/api/auth/signup", body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	data, _ := env.Data.(map[string]interface{})
	if token, _ := data["token"].(string); token == "" {
		t.Errorf("signup response missing token")
	}

	// self-registration never grants the requested roles
	usr, err := usrSvc.GetByUsernameOrEmail(context.Background(), "didikalombo")
	if err != nil {
		t.Fatalf("GetByUsernameOrEmail(): %v", err)
	}
	if !usr.IsStudent() || usr.IsAdmin() {
		t.Errorf("signup roles = %v, want student only", usr.Roles)
	}
	if !usr.IsActive {
		t.Errorf("signup account is not active")
	}

	// duplicate username rejected
	req, rec = newRequest(http.MethodPost, "/api/auth/signup", body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate signup code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func Test_userApi_accessControl(t *testing.T) {
	admin := createTestUser(t, "Mr Admin", "acladmin", "acladmin@test.cd", "LeFameux", user.AdminRoles, true)
	student := createTestUser(t, "Just Student", "aclstudent", "aclstudent@test.cd", "LeFameux", user.StudentRoles, true)
	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	tests := []httpTest{
		{
			name:     "anonymous is rejected",
			method:   http.MethodGet,
			path:     "/api/users",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "garbage token is rejected",
			method:   http.MethodGet,
			path:     "/api/users",
			token:    "not.a.jwt",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "student cannot list users",
			method:   http.MethodGet,
			path:     "/api/users",
			token:    studentToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "student cannot create users",
			method:   http.MethodPost,
			path:     "/api/users",
			body:     []byte(`{"name": "x"}`),
			token:    studentToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "admin lists users",
			method:   http.MethodGet,
			path:     "/api/users",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "student reads own profile",
			method:   http.MethodGet,
			path:     "/api/users/" + student.ID,
			token:    studentToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "student cannot read another profile",
			method:   http.MethodGet,
			path:     "/api/users/" + admin.ID,
			token:    studentToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "admin reads any profile",
			method:   http.MethodGet,
			path:     "/api/users/" + student.ID,
			token:    adminToken,
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCode(t, tt, rec)

			env := decodeEnvelope(t, rec)
			if env.Success != (tt.wantCode < 400) {
				t.Errorf("envelope.Success = %v for code %d", env.Success, rec.Code)
			}
			if tt.wantCode == http.StatusOK && strings.HasSuffix(tt.path, "/users") && env.Count == nil {
				t.Errorf("list envelope missing count")
			}
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	usr := createTestUser(t, "Refresh Me", "refreshme", "refresh@test.cd", "LeFameux", user.TeacherRoles, true)
	token := getToken(t, usr)

	req, rec := newAuthRequest(http.MethodPost, "/api/auth/token-refresh", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	data, _ := env.Data.(map[string]interface{})
	if refreshed, _ := data["token"].(string); refreshed == "" {
		t.Errorf("refresh response missing token")
	}
}
