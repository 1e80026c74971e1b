package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
)

type stubReader struct {
	items       []domain.Item
	gotCategory string
	err         error
}

func (s *stubReader) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: "c1", Name: "Pizza"}}, s.err
}

func (s *stubReader) ListItems(_ context.Context, categoryID string) ([]domain.Item, error) {
	s.gotCategory = categoryID
	return s.items, s.err
}

func (s *stubReader) ListBranches(context.Context) ([]domain.Branch, error) {
	return []domain.Branch{{ID: "b1", Name: "Downtown"}}, s.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestListItems(t *testing.T) {
	reader := &stubReader{items: []domain.Item{{
		ID: "p1", Name: "Margherita", Price: 20000, Available: true,
		Variations: []domain.Variation{{ID: "lg", Name: "Large", Price: 25000}},
		Addons:     []domain.Addon{},
	}}}
	srv := httptest.NewServer(NewHandler(quiet(), reader).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/menu-items?categoryId=c1")
	assert.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "c1", reader.gotCategory)
	assert.JSONEq(t, `{"success":true,"data":[{"id":"p1","name":"Margherita","price":200,"available":true,
		"variations":[{"id":"lg","name":"Large","price":250}],"addons":[]}]}`, string(body))
}

func TestReaderErrorIs500(t *testing.T) {
	srv := httptest.NewServer(NewHandler(quiet(), &stubReader{err: errors.New("db down")}).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/branches")
	assert.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"catalog unavailable"}`, string(body))
}
