package echoapi

import (
	"net/http"
	"testing"

	"github.com/trezcool/ngoma/core/user"
)

// Ledger-wide reports are admin-only reads; staff and students alike are
// turned away without the routes borrowing the write policy.
func Test_paymentApi_reportAccess(t *testing.T) {
	admin := createTestUser(t, "Ledger Admin", "ledgeradmin", "ledgeradmin@test.cd", "LeFameux", user.AdminRoles, true)
	teacher := createTestUser(t, "Ledger Teacher", "ledgerteacher", "ledgerteacher@test.cd", "LeFameux", user.TeacherRoles, true)
	student := createTestUser(t, "Ledger Student", "ledgerstudent", "ledgerstudent@test.cd", "LeFameux", user.StudentRoles, true)

	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, student)

	req, rec := newAuthRequest(http.MethodPost, "/api/batches", adminToken, []byte(`{
		"name": "Ledger Batch",
		"level": "basic",
		"days": ["monday"],
		"start_time": "18:00",
		"end_time": "19:00",
		"max_students": 10,
		"monthly_fee": 60
	}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("creating batch: code = %d (body: %s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	data, _ := env.Data.(map[string]interface{})
	batchID, _ := data["id"].(string)

	tests := []httpTest{
		{name: "summary: admin", method: http.MethodGet, path: "/api/payments/summary", token: adminToken, wantCode: http.StatusOK},
		{name: "summary: teacher", method: http.MethodGet, path: "/api/payments/summary", token: teacherToken, wantCode: http.StatusForbidden},
		{name: "summary: student", method: http.MethodGet, path: "/api/payments/summary", token: studentToken, wantCode: http.StatusForbidden},
		{name: "batch month: admin", method: http.MethodGet, path: "/api/payments/batch/" + batchID + "/month/2025-07", token: adminToken, wantCode: http.StatusOK},
		{name: "batch month: teacher", method: http.MethodGet, path: "/api/payments/batch/" + batchID + "/month/2025-07", token: teacherToken, wantCode: http.StatusForbidden},
		{name: "batch month: student", method: http.MethodGet, path: "/api/payments/batch/" + batchID + "/month/2025-07", token: studentToken, wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCode(t, tt, rec)
		})
	}
}
