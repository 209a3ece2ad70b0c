package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/ngoma/core/attendance"
	"github.com/trezcool/ngoma/core/user"
)

// Test_batchApi_rosterAndAttendance walks the full life of a one-seat batch:
// enrollment rules, the capacity limit, day-level attendance reconciliation
// and the summary access rules.
func Test_batchApi_rosterAndAttendance(t *testing.T) {
	admin := createTestUser(t, "Roster Admin", "rosteradmin", "rosteradmin@test.cd", "LeFameux", user.AdminRoles, true)
	teacher := createTestUser(t, "Roster Teacher", "rosterteacher", "rosterteacher@test.cd", "LeFameux", user.TeacherRoles, true)
	studentA := createTestUser(t, "Student A", "rosterstudenta", "rosterstudenta@test.cd", "LeFameux", user.StudentRoles, true)
	studentB := createTestUser(t, "Student B", "rosterstudentb", "rosterstudentb@test.cd", "LeFameux", user.StudentRoles, true)

	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)
	studentAToken := getToken(t, studentA)
	studentBToken := getToken(t, studentB)

	// only staff can create batches
	body := []byte(`{
		"name": "Salsa Solo",
		"level": "basic",
		"days": ["tuesday"],
		"start_time": "18:00",
		"end_time": "19:00",
		"max_students": 1,
		"monthly_fee": 50
	}`)
	req, rec := newAuthRequest(http.MethodPost, "/api/batches", studentAToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student created batch: code = %d", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodPost, "/api/batches", adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("creating batch: code = %d (body: %s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	data, _ := env.Data.(map[string]interface{})
	batchID, _ := data["id"].(string)
	if batchID == "" {
		t.Fatalf("created batch has no id (body: %s)", rec.Body.String())
	}

	enroll := func(t *testing.T, studentID string) *http.Response {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/api/batches/"+batchID+"/students", adminToken,
			[]byte(`{"student_id": "`+studentID+`"}`))
		app.ServeHTTP(rec, req)
		return rec.Result()
	}

	if res := enroll(t, teacher.ID); res.StatusCode != http.StatusBadRequest {
		t.Errorf("enrolling a teacher: code = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if res := enroll(t, studentA.ID); res.StatusCode != http.StatusOK {
		t.Fatalf("enrolling student A: code = %d", res.StatusCode)
	}
	if res := enroll(t, studentA.ID); res.StatusCode != http.StatusBadRequest {
		t.Errorf("re-enrolling student A: code = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if res := enroll(t, studentB.ID); res.StatusCode != http.StatusBadRequest {
		t.Errorf("enrolling past capacity: code = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	// enrollment sets the student's denormalized batch label
	usrA, err := usrSvc.GetByID(req.Context(), studentA.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if usrA.DanceInfo.CurrentBatch != "Salsa Solo" {
		t.Errorf("CurrentBatch = %q, want %q", usrA.DanceInfo.CurrentBatch, "Salsa Solo")
	}

	// day-level attendance: one record per (batch, day), overwritten on re-mark
	day := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	mark := attendance.Mark{
		BatchID:  batchID,
		Date:     day,
		Topic:    "Basic steps",
		Duration: 60,
		Entries:  []attendance.MarkEntry{{StudentID: studentA.ID, Status: "present"}},
	}

	req, rec = newAuthRequest(http.MethodPost, "/api/attendance", studentAToken, marshallObj(t, mark))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student marked attendance: code = %d", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodPost, "/api/attendance", teacherToken, marshallObj(t, mark))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("marking attendance: code = %d (body: %s)", rec.Code, rec.Body.String())
	}

	mark.Entries[0].Status = "late"
	req, rec = newAuthRequest(http.MethodPost, "/api/attendance", teacherToken, marshallObj(t, mark))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("re-marking attendance: code = %d (body: %s)", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/api/attendance?batch_id="+batchID, teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("querying attendance: code = %d", rec.Code)
	}
	env = decodeEnvelope(t, rec)
	if env.Count == nil || *env.Count != 1 {
		t.Fatalf("attendance records count = %v, want 1 (re-mark must overwrite)", env.Count)
	}
	recs, _ := env.Data.([]interface{})
	recData, _ := recs[0].(map[string]interface{})
	entries, _ := recData["entries"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entry, _ := entries[0].(map[string]interface{}); entry["status"] != "late" {
		t.Errorf("entry status = %v, want late", entry["status"])
	}
	if recData["marked_by"] != teacher.ID {
		t.Errorf("marked_by = %v, want %s", recData["marked_by"], teacher.ID)
	}

	// students may only read their own summary
	req, rec = newAuthRequest(http.MethodGet, "/api/attendance/student/"+studentA.ID+"/summary", studentAToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("own summary: code = %d (body: %s)", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, "/api/attendance/student/"+studentA.ID+"/summary", studentBToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign summary: code = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// removal is idempotent and clears the batch label
	req, rec = newAuthRequest(http.MethodDelete, "/api/batches/"+batchID+"/students/"+studentA.ID, adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("removing student A: code = %d (body: %s)", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodDelete, "/api/batches/"+batchID+"/students/"+studentA.ID, adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("re-removing student A: code = %d, want %d", rec.Code, http.StatusOK)
	}

	usrA, err = usrSvc.GetByID(req.Context(), studentA.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if usrA.DanceInfo.CurrentBatch != "" {
		t.Errorf("CurrentBatch = %q after removal, want empty", usrA.DanceInfo.CurrentBatch)
	}

	// the overwritten record keeps the removed student's entry
	req, rec = newAuthRequest(http.MethodGet, "/api/attendance?batch_id="+batchID, teacherToken)
	app.ServeHTTP(rec, req)
	env = decodeEnvelope(t, rec)
	if env.Count == nil || *env.Count != 1 {
		t.Errorf("attendance records count = %v after roster change, want 1", env.Count)
	}
}
