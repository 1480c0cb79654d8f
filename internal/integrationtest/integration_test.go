package integrationtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/professionals-service/internal/config"
	"gitlab.com/dirk.krummacker/professionals-service/internal/randomgen"
	"gitlab.com/dirk.krummacker/professionals-service/internal/service"
	"gitlab.com/dirk.krummacker/professionals-service/internal/store"
	"gitlab.com/dirk.krummacker/professionals-service/pkg/model"
)

// setupRouter starts the service on a fresh in-memory database.
func setupRouter(t *testing.T) *gin.Engine {
	s, err := store.Connect(context.Background(), store.DialectSQLite, ":memory:", true)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	gin.SetMode(gin.ReleaseMode)
	return service.New(s, nil).SetupHttpRouter(config.Config{})
}

// send executes the HTTP request against the router and returns the response.
func send(router *gin.Engine, method string, url string, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(method, url, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, request)
	return recorder
}

// listProfessionals returns the result of GET /professionals with the given query string.
func listProfessionals(t *testing.T, router *gin.Engine, query string) []model.Professional {
	recorder := send(router, "GET", "/professionals"+query, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var professionals []model.Professional
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &professionals))
	return professionals
}

// bulk posts the body to the bulk endpoint and returns the decoded response.
func bulk(t *testing.T, router *gin.Engine, body string) model.BulkResponse {
	recorder := send(router, "POST", "/professionals/bulk", body)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	var response model.BulkResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return response
}

func statuses(response model.BulkResponse) []string {
	out := []string{}
	for _, outcome := range response.Results {
		out = append(out, outcome.Status)
	}
	return out
}

// TestProfessionalHappyPath creates a professional and finds it in the list.
func TestProfessionalHappyPath(t *testing.T) {
	router := setupRouter(t)

	// test the endpoint for creating a professional
	postRecorder := send(router, "POST", "/professionals", `
		{
			"full_name": "Alice Chen",
			"email": "alice@example.com",
			"phone": "555-0001",
			"job_title": "Engineer",
			"company_name": "Acme",
			"source": "direct"
		}
	`)
	assert.Equal(t, http.StatusCreated, postRecorder.Code)
	var created model.Professional
	require.NoError(t, json.Unmarshal(postRecorder.Body.Bytes(), &created))
	assert.NotZero(t, created.Id)
	assert.Equal(t, "Alice Chen", created.FullName)
	assert.Equal(t, "alice@example.com", *created.Email)
	assert.Equal(t, "555-0001", *created.Phone)
	assert.Equal(t, "Engineer", created.JobTitle)
	assert.Equal(t, "Acme", created.CompanyName)
	assert.Equal(t, "direct", created.Source)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Minute)

	// test the endpoint for finding all professionals
	professionals := listProfessionals(t, router, "")
	require.Len(t, professionals, 1)
	assert.Equal(t, created, professionals[0])
}

// TestCreateAssignsUniqueIds expects every created professional to get its own id.
func TestCreateAssignsUniqueIds(t *testing.T) {
	router := setupRouter(t)
	ids := map[int64]bool{}
	for i := 0; i < 20; i++ {
		body, err := json.Marshal(randomgen.Professional())
		require.NoError(t, err)
		recorder := send(router, "POST", "/professionals", string(body))
		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
		var created model.Professional
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
		assert.False(t, ids[created.Id], "id %d assigned twice", created.Id)
		ids[created.Id] = true
	}
}

// TestListNewestFirst expects the most recently created professional at the top of the list.
func TestListNewestFirst(t *testing.T) {
	router := setupRouter(t)
	for _, name := range []string{"First", "Second", "Third"} {
		recorder := send(router, "POST", "/professionals",
			fmt.Sprintf(`{"full_name": %q, "phone": %q, "source": "internal"}`, name, randomgen.Phone()))
		require.Equal(t, http.StatusCreated, recorder.Code)
	}
	professionals := listProfessionals(t, router, "")
	require.Len(t, professionals, 3)
	assert.Equal(t, "Third", professionals[0].FullName)
	assert.Equal(t, "Second", professionals[1].FullName)
	assert.Equal(t, "First", professionals[2].FullName)
}

// TestListBySource expects only professionals with the requested source, and an empty list when
// there are none.
func TestListBySource(t *testing.T) {
	router := setupRouter(t)
	bulk(t, router, `[
		{"full_name": "D", "email": "d@test.com", "source": "direct"},
		{"full_name": "P", "email": "p@test.com", "source": "partner"}
	]`)

	partners := listProfessionals(t, router, "?source=partner")
	require.Len(t, partners, 1)
	assert.Equal(t, "P", partners[0].FullName)

	recorder := send(router, "GET", "/professionals?source=internal", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, "[]", recorder.Body.String())
}

// TestListEntriesCarryAllFields expects absent contact details to be listed as null.
func TestListEntriesCarryAllFields(t *testing.T) {
	router := setupRouter(t)
	bulk(t, router, `[{"full_name": "Only Phone", "phone": "555-7000", "source": "direct"}]`)

	recorder := send(router, "GET", "/professionals", "")
	var professionals []map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &professionals))
	require.Len(t, professionals, 1)
	for _, key := range []string{"id", "full_name", "email", "phone", "company_name", "job_title", "source", "created_at"} {
		assert.Contains(t, professionals[0], key)
	}
	assert.Nil(t, professionals[0]["email"])
}

// TestCreateWithoutContact expects a professional without email and phone to be rejected, singly
// and in bulk, and never stored.
func TestCreateWithoutContact(t *testing.T) {
	router := setupRouter(t)

	recorder := send(router, "POST", "/professionals", `{"full_name": "No Contact", "source": "direct"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.JSONEq(t, `{"non_field_errors": ["At least one of email or phone must be provided."]}`, recorder.Body.String())

	response := bulk(t, router, `[{"full_name": "No Contact", "email": "", "phone": null, "source": "direct"}]`)
	assert.Equal(t, []string{"error"}, statuses(response))
	assert.Contains(t, response.Results[0].Errors, "non_field_errors")

	assert.Empty(t, listProfessionals(t, router, ""))
}

// TestCreateEmptyEmailTwice expects empty email addresses to be stored as null, so that two of
// them do not collide.
func TestCreateEmptyEmailTwice(t *testing.T) {
	router := setupRouter(t)
	for _, phone := range []string{"555-8001", "555-8002"} {
		recorder := send(router, "POST", "/professionals",
			fmt.Sprintf(`{"full_name": "Person", "email": "", "phone": %q, "source": "direct"}`, phone))
		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
		var created model.Professional
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
		assert.Nil(t, created.Email)
	}
	assert.Len(t, listProfessionals(t, router, ""), 2)
}

// TestCreateDuplicates expects a taken email or phone to be rejected with an error for that field.
func TestCreateDuplicates(t *testing.T) {
	router := setupRouter(t)
	recorder := send(router, "POST", "/professionals", `{"full_name": "First", "email": "dup@example.com", "phone": "555-9999", "source": "direct"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = send(router, "POST", "/professionals", `{"full_name": "Second", "email": "dup@example.com", "source": "direct"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.JSONEq(t, `{"email": ["professional with this email already exists."]}`, recorder.Body.String())

	recorder = send(router, "POST", "/professionals", `{"full_name": "Third", "phone": "555-9999", "source": "direct"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.JSONEq(t, `{"phone": ["professional with this phone already exists."]}`, recorder.Body.String())

	// emails are case-sensitive as stored
	recorder = send(router, "POST", "/professionals", `{"full_name": "Fourth", "email": "DUP@example.com", "source": "direct"}`)
	assert.Equal(t, http.StatusCreated, recorder.Code)
}

// TestCreateMissingRequiredFields expects an error for each missing required field.
func TestCreateMissingRequiredFields(t *testing.T) {
	router := setupRouter(t)

	recorder := send(router, "POST", "/professionals", `{"full_name": "No Source", "email": "x@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"source"`)

	recorder = send(router, "POST", "/professionals", `{"email": "x@example.com", "source": "direct"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"full_name"`)

	recorder = send(router, "POST", "/professionals", `{"full_name": "Bad", "email": "not-an-email", "source": "direct"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.JSONEq(t, `{"email": ["Enter a valid email address."]}`, recorder.Body.String())
}

// TestBulkSameEmailTwice expects the second item with the same email to update the professional
// created by the first one.
func TestBulkSameEmailTwice(t *testing.T) {
	router := setupRouter(t)
	response := bulk(t, router, `[
		{"full_name": "First", "email": "twice@test.com", "source": "direct"},
		{"full_name": "Second", "email": "twice@test.com", "source": "partner"}
	]`)
	assert.Equal(t, []string{"created", "updated"}, statuses(response))
	assert.Equal(t, response.Results[0].Professional.Id, response.Results[1].Professional.Id)

	professionals := listProfessionals(t, router, "")
	require.Len(t, professionals, 1)
	assert.Equal(t, "Second", professionals[0].FullName)
	assert.Equal(t, "partner", professionals[0].Source)
}

// TestBulkPartialSuccess expects an invalid item in the middle not to affect its neighbours.
func TestBulkPartialSuccess(t *testing.T) {
	router := setupRouter(t)
	response := bulk(t, router, `[
		{"full_name": "Good", "email": "good@test.com", "source": "direct"},
		{"full_name": "Bad", "source": "invalid"},
		{"full_name": "Also Good", "phone": "555-0003", "source": "internal"}
	]`)
	assert.Equal(t, []string{"created", "error", "created"}, statuses(response))
	for i, outcome := range response.Results {
		assert.Equal(t, i, outcome.Index)
	}
	assert.Equal(t, "Good", response.Results[0].Professional.FullName)
	assert.Equal(t, "Also Good", response.Results[2].Professional.FullName)
	assert.Len(t, listProfessionals(t, router, ""), 2)
}

// TestBulkBadItemReportsAllFields expects every problem of an item to be reported.
func TestBulkBadItemReportsAllFields(t *testing.T) {
	router := setupRouter(t)
	response := bulk(t, router, `[{"full_name": "", "phone": "555", "source": "nowhere"}]`)
	require.Equal(t, []string{"error"}, statuses(response))
	assert.Equal(t, []string{"This field may not be blank."}, response.Results[0].Errors["full_name"])
	assert.Equal(t, []string{`"nowhere" is not a valid choice.`}, response.Results[0].Errors["source"])
}

// TestBulkEmailWinsOverPhone creates two professionals and sends an item whose email belongs to
// the first and whose phone belongs to the second. It expects the first to be the one matched,
// the second to stay as it was and no professional to be added.
func TestBulkEmailWinsOverPhone(t *testing.T) {
	router := setupRouter(t)
	bulk(t, router, `[
		{"full_name": "Email Match", "email": "match@test.com", "phone": "555-0020", "source": "direct"},
		{"full_name": "Phone Match", "phone": "555-0030", "source": "direct"}
	]`)

	response := bulk(t, router, `[{"full_name": "Should Update Email Match", "email": "match@test.com", "source": "partner"}]`)
	require.Equal(t, []string{"updated"}, statuses(response))
	assert.Equal(t, "match@test.com", *response.Results[0].Professional.Email)
	assert.Equal(t, "555-0020", *response.Results[0].Professional.Phone)

	// the phone of the second professional cannot be moved onto the email match
	response = bulk(t, router, `[{"full_name": "Both", "email": "match@test.com", "phone": "555-0030", "source": "partner"}]`)
	require.Equal(t, []string{"error"}, statuses(response))
	assert.Contains(t, response.Results[0].Errors, "phone")

	professionals := listProfessionals(t, router, "")
	require.Len(t, professionals, 2)
	byName := map[string]model.Professional{}
	for _, p := range professionals {
		byName[p.FullName] = p
	}
	assert.Contains(t, byName, "Should Update Email Match")
	require.Contains(t, byName, "Phone Match")
	assert.Equal(t, "555-0030", *byName["Phone Match"].Phone)
	assert.Equal(t, "direct", byName["Phone Match"].Source)
}

// TestBulkPhoneFallback expects an item without email to update the professional with its phone.
func TestBulkPhoneFallback(t *testing.T) {
	router := setupRouter(t)
	bulk(t, router, `[{"full_name": "Phone User", "phone": "555-0010", "company_name": "Acme", "source": "direct"}]`)

	response := bulk(t, router, `[{"full_name": "Phone Updated", "phone": "555-0010", "source": "internal"}]`)
	require.Equal(t, []string{"updated"}, statuses(response))
	assert.Equal(t, "Phone Updated", response.Results[0].Professional.FullName)
	assert.Equal(t, "Acme", response.Results[0].Professional.CompanyName)
	assert.Len(t, listProfessionals(t, router, ""), 1)
}

// TestBulkWrappedBody expects the list to be accepted under the 'professionals' key too.
func TestBulkWrappedBody(t *testing.T) {
	router := setupRouter(t)
	response := bulk(t, router, `{"professionals": [{"full_name": "W", "email": "w@test.com", "source": "partner"}]}`)
	assert.Equal(t, []string{"created"}, statuses(response))
}

// TestBulkTrailingSlash expects the trailing slash variant of the bulk route to be redirected.
func TestBulkTrailingSlash(t *testing.T) {
	router := setupRouter(t)
	recorder := send(router, "POST", "/professionals/bulk/", `[]`)
	assert.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
	assert.Equal(t, "/professionals/bulk", recorder.Header().Get("Location"))
}

// TestBulkInvalidBody expects a body that is not a list to be rejected without storing anything.
func TestBulkInvalidBody(t *testing.T) {
	router := setupRouter(t)
	for _, body := range []string{
		`{"full_name": "Not A List", "email": "x@test.com", "source": "direct"}`,
		`"text"`,
		`17`,
		`[{"full_name": "broken"`,
	} {
		recorder := send(router, "POST", "/professionals/bulk", body)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, body)
		assert.JSONEq(t, `{"error": "'professionals' must be a list."}`, recorder.Body.String())
	}
	assert.Empty(t, listProfessionals(t, router, ""))
}

// TestBulkRandomBatch sends a large random batch twice. It expects everything to be created the
// first time and updated the second time.
func TestBulkRandomBatch(t *testing.T) {
	router := setupRouter(t)
	items := randomgen.Professionals(200)
	body, err := json.Marshal(items)
	require.NoError(t, err)

	first := bulk(t, router, string(body))
	assert.Equal(t, map[string]int{"created": 200}, first.Counts())
	second := bulk(t, router, string(body))
	assert.Equal(t, map[string]int{"updated": 200}, second.Counts())
	assert.Len(t, listProfessionals(t, router, ""), 200)
}
