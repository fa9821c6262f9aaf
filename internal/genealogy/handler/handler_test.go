package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineage/internal/genealogy/service"
	"lineage/internal/genealogy/store/navstate"
	"lineage/internal/genealogy/tree"
	"lineage/internal/platform/logger"
	"lineage/pkg/platform/middleware/admin"
	"lineage/pkg/testutil"
)

const adminToken = "secret-token"

type stubFetcher struct {
	records []tree.Record
	err     error
}

func (f *stubFetcher) Fetch(context.Context) ([]tree.Record, error) {
	return f.records, f.err
}

func familyRecords() []tree.Record {
	return []tree.Record{
		{Name: "Urahn", AnchorID: "0", Type: "birth", Date: 1750.0},
		{Name: "Urahn", AnchorID: "0", Type: "death", Date: 1820.0},
		{Name: "Johann", AnchorID: "1", Type: "birth", Date: 1780.0, ParentID: "0"},
		{Name: "Maria", AnchorID: "2", Type: "birth", Date: 1785.0, ParentID: "0"},
		{Name: "Maria", Type: "marriage", Date: 1805.0, Partner: "Karl Weber", PartnerDates: "1780-1840"},
		{Name: "Fritz", AnchorID: "3", Type: "birth", Date: 1810.0, ParentID: "1"},
	}
}

func newRouter(t *testing.T, fetcher *stubFetcher) chi.Router {
	t.Helper()
	svc := service.New(fetcher, navstate.NewInMemory(time.Hour))
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	log := logger.Discard()
	h := New(svc, log)
	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(adminToken, log))
		h.RegisterAdmin(r)
	})
	return r
}

func TestTreeAndPersons(t *testing.T) {
	router := newRouter(t, &stubFetcher{records: familyRecords()})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/tree"))
	require.Equal(t, http.StatusOK, rr.Code)
	overview := testutil.UnmarshalResponse[TreeResponse](t, rr)
	assert.Equal(t, "Urahn", overview.Root.Name)
	assert.Equal(t, "1750–1820", overview.Root.LifeSpan)
	assert.Equal(t, 4, overview.Persons)
	assert.Equal(t, 6, overview.Records)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/persons/0"))
	require.Equal(t, http.StatusOK, rr.Code)
	person := testutil.UnmarshalResponse[PersonResponse](t, rr)
	assert.Equal(t, 3, person.Person.Descendants)
	require.Len(t, person.Children, 2)
	assert.Equal(t, "Johann", person.Children[0].Name)
	assert.Equal(t, "Maria", person.Children[1].Name)
	assert.Equal(t, []string{"⚭ 1805 Karl Weber (1780–1840)"}, person.Children[1].Marriages)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/persons/42"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestSearchEndpoint(t *testing.T) {
	router := newRouter(t, &stubFetcher{records: familyRecords()})

	testutil.Given(t, "a spouse name", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/search?q=weber"))
		require.Equal(t, http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[SearchResponse](t, rr)

		testutil.Then(t, "the married person is found through the spouse", func(t *testing.T) {
			require.Len(t, resp.Results, 1)
			assert.Equal(t, "Maria", resp.Results[0].Person.Name)
			assert.Equal(t, "spouse", resp.Results[0].Match)
			assert.Equal(t, "Karl Weber", resp.Results[0].Spouse)
		})
	})

	testutil.Given(t, "a one character query", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/search?q=M"))
		require.Equal(t, http.StatusOK, rr.Code)

		testutil.Then(t, "the result list is empty, not null", func(t *testing.T) {
			assert.JSONEq(t, `{"query":"M","results":[]}`, rr.Body.String())
		})
	})
}

func TestSessionFlow(t *testing.T) {
	router := newRouter(t, &stubFetcher{records: familyRecords()})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, "/sessions"))
	require.Equal(t, http.StatusCreated, rr.Code)
	created := testutil.UnmarshalResponse[SessionResponse](t, rr)
	require.NotEmpty(t, created.SessionID)
	assert.Equal(t, "/sessions/"+created.SessionID, rr.Header().Get("Location"))
	assert.Equal(t, []string{"Urahn"}, created.Breadcrumb)
	assert.Empty(t, created.Ancestors)

	base := "/sessions/" + created.SessionID

	testutil.When(t, "navigating to a grandchild", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, base+"/navigate", NavigateRequest{PersonID: "3"}))
		require.Equal(t, http.StatusOK, rr.Code)
		view := testutil.UnmarshalResponse[SessionResponse](t, rr)
		assert.Equal(t, "Fritz", view.Focus.Name)
		assert.Equal(t, []string{"Urahn", "Johann", "Fritz"}, view.Breadcrumb)
		require.Len(t, view.Ancestors, 2)
		assert.Equal(t, "Johann", view.Ancestors[1].Name)
	})

	testutil.When(t, "reading the session back", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, base))
		require.Equal(t, http.StatusOK, rr.Code)
		view := testutil.UnmarshalResponse[SessionResponse](t, rr)
		assert.Equal(t, "Fritz", view.Focus.Name)
	})

	testutil.When(t, "navigating to an unknown person", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, base+"/navigate", NavigateRequest{PersonID: "99"}))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	testutil.When(t, "navigating without a person id", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, base+"/navigate", `{"person_id":"  "}`))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	testutil.When(t, "restoring a broken path", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, base+"/restore", RestoreRequest{Path: []string{"Urahn", "Niemand"}}))
		require.Equal(t, http.StatusOK, rr.Code)
		view := testutil.UnmarshalResponse[SessionResponse](t, rr)
		assert.Equal(t, "Urahn", view.Focus.Name)
	})

	testutil.When(t, "restoring a valid path", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, base+"/restore", RestoreRequest{Path: []string{"Urahn", " Maria "}}))
		require.Equal(t, http.StatusOK, rr.Code)
		view := testutil.UnmarshalResponse[SessionResponse](t, rr)
		assert.Equal(t, "Maria", view.Focus.Name)
	})

	testutil.When(t, "deleting the session", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, base))
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, base))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestMalformedBody(t *testing.T) {
	router := newRouter(t, &stubFetcher{records: familyRecords()})

	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/sessions/abc/restore", `{"path":`))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestReloadEndpoint(t *testing.T) {
	fetcher := &stubFetcher{records: familyRecords()}
	router := newRouter(t, fetcher)

	testutil.Given(t, "no admin token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, "/admin/reload"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	testutil.Given(t, "the admin token and a grown source", func(t *testing.T) {
		fetcher.records = append(familyRecords(), tree.Record{Name: "Anna", AnchorID: "4", Type: "birth", Date: 1840.0, ParentID: "3"})
		req := testutil.NewRequest(t, http.MethodPost, "/admin/reload")
		req.Header.Set("X-Admin-Token", adminToken)
		rr := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rr.Code)

		testutil.Then(t, "the new tree is published", func(t *testing.T) {
			resp := testutil.UnmarshalResponse[ReloadResponse](t, rr)
			assert.Equal(t, 5, resp.Persons)

			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/persons/4"))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	})

	testutil.Given(t, "an unreachable source", func(t *testing.T) {
		fetcher.err = errors.New("connection refused")
		req := testutil.NewRequest(t, http.MethodPost, "/admin/reload")
		req.Header.Set("X-Admin-Token", adminToken)
		rr := testutil.DoRequest(router, req)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		testutil.Then(t, "the previous tree keeps serving", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/persons/4"))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	})
}

func TestHandleViewReadsSessionFromContext(t *testing.T) {
	svc := service.New(&stubFetcher{records: familyRecords()}, navstate.NewInMemory(time.Hour))
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)
	created, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	h := New(svc, logger.Discard())
	req := testutil.NewRequest(t, http.MethodGet, "/sessions/ignored")
	req = testutil.WithRequestID(testutil.WithSessionID(req, created.SessionID), "req-1")

	rr := testutil.DoRequest(http.HandlerFunc(h.HandleView), req)
	require.Equal(t, http.StatusOK, rr.Code)
	view := testutil.UnmarshalResponse[SessionResponse](t, rr)
	assert.Equal(t, created.SessionID, view.SessionID)
	assert.Equal(t, "Urahn", view.Focus.Name)
}
