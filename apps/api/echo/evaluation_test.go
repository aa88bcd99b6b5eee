package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/fpms/apps/api/echo"
	"github.com/trezcool/fpms/core/evaluation"
	"github.com/trezcool/fpms/core/user"
	"github.com/trezcool/fpms/testutil"
)

type evalUsers struct {
	fac1, fac2, facECE, hod, hodECE, committee, admin user.User
}

func createEvalUsers(t *testing.T) evalUsers {
	return evalUsers{
		fac1:      testutil.CreateUser(t, usrRepo, "Ada", "ada@test.cd", "", user.RoleFaculty, "CSE", true),
		fac2:      testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "", user.RoleFaculty, "CSE", true),
		facECE:    testutil.CreateUser(t, usrRepo, "Alan", "alan@test.cd", "", user.RoleFaculty, "ECE", true),
		hod:       testutil.CreateUser(t, usrRepo, "Hod", "hod@test.cd", "", user.RoleHOD, "CSE", true),
		hodECE:    testutil.CreateUser(t, usrRepo, "Hod ECE", "hod.ece@test.cd", "", user.RoleHOD, "ECE", true),
		committee: testutil.CreateUser(t, usrRepo, "Committee", "com@test.cd", "", user.RoleCommittee, "", true),
		admin:     testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, "", true),
	}
}

func subPath(id string, rest ...string) string {
	p := "/v1/submissions/" + id
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func Test_evaluationApi_catalog(t *testing.T) {
	db.Reset()
	us := createEvalUsers(t)

	want := marchallObj(t, CatalogResponse{
		Modules:   evaluation.Catalog(),
		MaxPoints: 300,
		Year:      testutil.Year,
	})
	runTests(t, []httpTest{
		{name: "auth required", path: "/v1/catalog", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "catalog", path: "/v1/catalog", token: getToken(t, us.fac1), wantCode: http.StatusOK, wantData: want},
	})
}

func Test_evaluationApi_current(t *testing.T) {
	db.Reset()
	us := createEvalUsers(t)
	token := getToken(t, us.fac1)

	req, rec := newAuthRequest(http.MethodGet, "/v1/submissions/current", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var first evaluation.Submission
	unmarshal(t, rec, &first)
	assert.Equal(t, us.fac1.ID, first.FacultyID)
	assert.Equal(t, "CSE", first.Department)
	assert.Equal(t, testutil.Year, first.AcademicYear)
	assert.Equal(t, evaluation.StatusDraft, first.Status)
	assert.Len(t, first.Modules, 5)

	// idempotent
	req, rec = newAuthRequest(http.MethodGet, "/v1/submissions/current", token)
	app.ServeHTTP(rec, req)
	var second evaluation.Submission
	unmarshal(t, rec, &second)
	if second.ID != first.ID {
		t.Errorf("failed! id = %v; want %v", second.ID, first.ID)
	}

	runTests(t, []httpTest{
		{name: "faculty only", path: "/v1/submissions/current", token: getToken(t, us.hod), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
	})
}

func Test_evaluationApi_create(t *testing.T) {
	db.Reset()
	us := createEvalUsers(t)
	token := getToken(t, us.fac1)

	runTests(t, []httpTest{
		{name: "faculty only", method: http.MethodPost, path: "/v1/submissions", token: getToken(t, us.admin), body: []byte(`{"academic_year":"2023-24"}`), wantCode: http.StatusForbidden},
		{name: "missing year", method: http.MethodPost, path: "/v1/submissions", token: token, body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{
			name: "bad year", method: http.MethodPost, path: "/v1/submissions", token: token, body: []byte(`{"academic_year":"2023-25"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"academic_year":"must be consecutive years like 2024-25"}`),
		},
		{name: "created", method: http.MethodPost, path: "/v1/submissions", token: token, body: []byte(`{"academic_year":"2023-24"}`), wantCode: http.StatusCreated},
		{
			name: "duplicate", method: http.MethodPost, path: "/v1/submissions", token: token, body: []byte(`{"academic_year":" 2023-24 "}`),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: evaluation.ErrSubmissionExists.Error()}),
		},
	})
}

func Test_evaluationApi_workflow(t *testing.T) {
	db.Reset()
	us := createEvalUsers(t)
	facToken := getToken(t, us.fac1)
	hodToken := getToken(t, us.hod)
	comToken := getToken(t, us.committee)
	adminToken := getToken(t, us.admin)

	sub := testutil.CreateSubmission(t, evalSvc, testutil.Actor(us.fac1), testutil.Year, nil)

	send := func(t *testing.T, method, path, token string, body []byte, wantCode int) evaluation.Submission {
		t.Helper()
		req, rec := newAuthRequest(method, path, token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, wantCode, rec.Code, rec.Body.String())
		var got evaluation.Submission
		if wantCode < 300 {
			unmarshal(t, rec, &got)
		}
		return got
	}

	// fill teaching: 15 + 20 + 40 claimed, clamped to 70
	got := send(t, http.MethodPut, subPath(sub.ID, "modules", evaluation.ModuleTeaching), facToken, []byte(`{"entries":[
		{"criteria":"Student feedback","claimed_points":15,"evidence":"https://x.cd/f.pdf","evidence_kind":"pdf"},
		{"criteria":"Academic results","claimed_points":20},
		{"criteria":"Course planning and delivery","claimed_points":40}
	]}`), http.StatusOK)
	assert.Equal(t, 70, got.Module(evaluation.ModuleTeaching).Score)
	assert.Equal(t, 70, got.TotalScore)

	// invalid entries are refused as a whole
	send(t, http.MethodPut, subPath(sub.ID, "modules", evaluation.ModuleResearch), facToken,
		[]byte(`{"entries":[{"criteria":"Consultancy work","claimed_points":-1}]}`), http.StatusBadRequest)
	send(t, http.MethodPut, subPath(sub.ID, "modules", evaluation.ModuleResearch), facToken,
		[]byte(`{"entries":[{"criteria":"Consultancy work","claimed_points":5,"evidence_kind":"zip"}]}`), http.StatusBadRequest)
	send(t, http.MethodPut, subPath(sub.ID, "modules", "sports"), facToken, []byte(`{"entries":[]}`), http.StatusNotFound)

	// other faculty cannot see nor edit
	send(t, http.MethodGet, subPath(sub.ID), getToken(t, us.fac2), nil, http.StatusNotFound)
	send(t, http.MethodPut, subPath(sub.ID, "modules", evaluation.ModuleResearch), getToken(t, us.fac2), []byte(`{"entries":[]}`), http.StatusNotFound)

	// single entry lifecycle
	req, rec := newAuthRequest(http.MethodPost, subPath(sub.ID, "modules", evaluation.ModuleResearch, "entries"), facToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added EntryResponse
	unmarshal(t, rec, &added)
	require.NotEmpty(t, added.EntryID)

	entryPath := subPath(sub.ID, "modules", evaluation.ModuleResearch, "entries", added.EntryID)
	got = send(t, http.MethodPatch, entryPath, facToken, []byte(`{"criteria":"Consultancy work","claimed_points":30}`), http.StatusOK)
	assert.Equal(t, 15, got.Module(evaluation.ModuleResearch).Score)
	assert.Equal(t, 85, got.TotalScore)

	got = send(t, http.MethodDelete, entryPath, facToken, nil, http.StatusOK)
	assert.Equal(t, 0, got.Module(evaluation.ModuleResearch).Score)
	send(t, http.MethodDelete, entryPath, facToken, nil, http.StatusNotFound)

	// review out of order
	send(t, http.MethodPost, subPath(sub.ID, "approve"), hodToken, nil, http.StatusConflict)
	send(t, http.MethodPost, subPath(sub.ID, "submit"), getToken(t, us.fac2), nil, http.StatusNotFound)

	got = send(t, http.MethodPost, subPath(sub.ID, "submit"), facToken, nil, http.StatusOK)
	assert.Equal(t, evaluation.StatusSubmitted, got.Status)
	assert.NotNil(t, got.SubmittedAt)

	// edits are locked once submitted
	send(t, http.MethodPut, subPath(sub.ID, "modules", evaluation.ModuleTeaching), facToken, []byte(`{"entries":[]}`), http.StatusLocked)
	send(t, http.MethodPost, subPath(sub.ID, "modules", evaluation.ModuleTeaching, "entries"), facToken, nil, http.StatusLocked)

	// hod of another department does not see it
	send(t, http.MethodPost, subPath(sub.ID, "approve"), getToken(t, us.hodECE), nil, http.StatusNotFound)
	// committee acts after the hod only
	send(t, http.MethodPost, subPath(sub.ID, "approve"), comToken, nil, http.StatusConflict)

	got = send(t, http.MethodPost, subPath(sub.ID, "approve"), hodToken, []byte(`{"remarks":"looks good"}`), http.StatusOK)
	assert.Equal(t, evaluation.StatusUnderReview, got.Status)
	assert.Equal(t, "looks good", got.HODRemarks)
	assert.Equal(t, us.hod.ID, got.ReviewedBy)

	// reject needs remarks
	send(t, http.MethodPost, subPath(sub.ID, "reject"), comToken, []byte(`{"remarks":"  "}`), http.StatusBadRequest)

	got = send(t, http.MethodPost, subPath(sub.ID, "approve"), comToken, []byte(`{"remarks":"approved"}`), http.StatusOK)
	assert.Equal(t, evaluation.StatusApproved, got.Status)
	assert.Equal(t, "approved", got.CommitteeRemarks)

	send(t, http.MethodPost, subPath(sub.ID, "lock"), comToken, nil, http.StatusConflict)
	got = send(t, http.MethodPost, subPath(sub.ID, "lock"), adminToken, nil, http.StatusOK)
	assert.Equal(t, evaluation.StatusLocked, got.Status)
	assert.Len(t, got.History, 4)

	// terminal
	send(t, http.MethodPost, subPath(sub.ID, "lock"), adminToken, nil, http.StatusConflict)
	assert.Equal(t, 70, got.TotalScore)
}

func Test_evaluationApi_reject(t *testing.T) {
	db.Reset()
	us := createEvalUsers(t)
	owner := testutil.Actor(us.fac1)

	sub := testutil.CreateSubmission(t, evalSvc, owner, testutil.Year, nil)
	sub = testutil.Advance(t, evalSvc, sub, evaluation.StatusSubmitted, owner, testutil.Actor(us.hod), testutil.Actor(us.committee))

	req, rec := newAuthRequest(http.MethodPost, subPath(sub.ID, "reject"), getToken(t, us.hod), []byte(`{"remarks":" missing evidence "}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got evaluation.Submission
	unmarshal(t, rec, &got)
	assert.Equal(t, evaluation.StatusRejected, got.Status)
	assert.Equal(t, "missing evidence", got.Remarks)

	// rejected is terminal
	runTests(t, []httpTest{
		{name: "resubmit", method: http.MethodPost, path: subPath(sub.ID, "submit"), token: getToken(t, us.fac1), wantCode: http.StatusConflict},
		{name: "edit", method: http.MethodPut, path: subPath(sub.ID, "modules", evaluation.ModuleTeaching), token: getToken(t, us.fac1), body: []byte(`{"entries":[]}`), wantCode: http.StatusLocked},
	})
}

func Test_evaluationApi_actions(t *testing.T) {
	db.Reset()
	us := createEvalUsers(t)

	sub := testutil.CreateSubmission(t, evalSvc, testutil.Actor(us.fac1), testutil.Year, nil)

	runTests(t, []httpTest{
		{
			name: "owner on draft", path: subPath(sub.ID, "actions"), token: getToken(t, us.fac1), wantCode: http.StatusOK,
			wantData: marchallObj(t, ActionsResponse{Status: evaluation.StatusDraft, Editable: true, Actions: []evaluation.Action{evaluation.ActionSubmit}}),
		},
		{
			name: "hod on draft", path: subPath(sub.ID, "actions"), token: getToken(t, us.hod), wantCode: http.StatusOK,
			wantData: marchallObj(t, ActionsResponse{Status: evaluation.StatusDraft, Actions: []evaluation.Action{}}),
		},
		{name: "hidden", path: subPath(sub.ID, "actions"), token: getToken(t, us.fac2), wantCode: http.StatusNotFound},
	})

	sub = testutil.Advance(t, evalSvc, sub, evaluation.StatusSubmitted, testutil.Actor(us.fac1), testutil.Actor(us.hod), testutil.Actor(us.committee))
	runTests(t, []httpTest{
		{
			name: "hod on submitted", path: subPath(sub.ID, "actions"), token: getToken(t, us.hod), wantCode: http.StatusOK,
			wantData: marchallObj(t, ActionsResponse{
				Status:  evaluation.StatusSubmitted,
				Actions: []evaluation.Action{evaluation.ActionApprove, evaluation.ActionReject},
			}),
		},
	})
}

func Test_evaluationApi_progress(t *testing.T) {
	db.Reset()
	us := createEvalUsers(t)

	sub := testutil.CreateSubmission(t, evalSvc, testutil.Actor(us.fac1), testutil.Year, map[string][]evaluation.EntryInput{
		evaluation.ModuleStudent: {{Criteria: "Student club activities", ClaimedPoints: 5}},
	})
	sub, err := evalSvc.Get(context.Background(), testutil.Actor(us.fac1), sub.ID)
	require.NoError(t, err)

	runTests(t, []httpTest{
		{name: "progress", path: subPath(sub.ID, "progress"), token: getToken(t, us.fac1), wantCode: http.StatusOK, wantData: marchallObj(t, sub.Progress())},
	})
}

func Test_evaluationApi_list(t *testing.T) {
	db.Reset()
	us := createEvalUsers(t)
	hod, com := testutil.Actor(us.hod), testutil.Actor(us.committee)

	fill := func(usr user.User, points int) evaluation.Submission {
		return testutil.CreateSubmission(t, evalSvc, testutil.Actor(usr), testutil.Year, map[string][]evaluation.EntryInput{
			evaluation.ModuleTeaching: {{Criteria: "Student feedback", ClaimedPoints: points}},
		})
	}
	sub1 := testutil.Advance(t, evalSvc, fill(us.fac1, 10), evaluation.StatusSubmitted, testutil.Actor(us.fac1), hod, com)
	sub2 := fill(us.fac2, 20)
	subECE := testutil.Advance(t, evalSvc, fill(us.facECE, 5), evaluation.StatusSubmitted, testutil.Actor(us.facECE), testutil.Actor(us.hodECE), com)

	load := func(subs ...evaluation.Submission) []interface{} {
		objs := make([]interface{}, 0, len(subs))
		for _, s := range subs {
			got, err := evalSvc.Get(context.Background(), testutil.Actor(us.admin), s.ID)
			require.NoError(t, err)
			objs = append(objs, got)
		}
		return objs
	}
	adminToken := getToken(t, us.admin)

	runTests(t, []httpTest{
		{name: "auth required", path: "/v1/submissions", wantCode: http.StatusUnauthorized},
		{name: "faculty sees own", path: "/v1/submissions", token: getToken(t, us.fac2), wantCode: http.StatusOK, wantData: marchallList(t, load(sub2)...)},
		{
			name: "hod scoped to department", path: "/v1/submissions?ordering=-total_score", token: getToken(t, us.hod),
			wantCode: http.StatusOK, wantData: marchallList(t, load(sub2, sub1)...),
		},
		{
			name: "admin by score", path: "/v1/submissions?ordering=total_score", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, load(subECE, sub1, sub2)...),
		},
		{
			name: "admin by status", path: "/v1/submissions?status=submitted&ordering=total_score", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, load(subECE, sub1)...),
		},
		{name: "unknown department", path: "/v1/submissions?department=MECH", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t)},
		// review queues
		{name: "faculty has no queue", path: "/v1/submissions/review-queue", token: getToken(t, us.fac1), wantCode: http.StatusForbidden},
		{name: "hod queue", path: "/v1/submissions/review-queue", token: getToken(t, us.hodECE), wantCode: http.StatusOK, wantData: marchallList(t, load(subECE)...)},
		{name: "committee queue empty", path: "/v1/submissions/review-queue", token: getToken(t, us.committee), wantCode: http.StatusOK, wantData: marchallList(t)},
	})
}
