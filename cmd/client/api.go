package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitlab.com/dirk.krummacker/professionals-service/pkg/model"
)

// apiClient talks to a running professionals service.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is returned for responses with an unexpected status code.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// list fetches all professionals, optionally only those with the given source.
func (a *apiClient) list(source string) ([]model.Professional, error) {
	requestURL := a.baseURL + "/professionals"
	if source != "" {
		requestURL += "?source=" + url.QueryEscape(source)
	}
	var professionals []model.Professional
	_, err := a.do(http.MethodGet, requestURL, nil, http.StatusOK, &professionals)
	return professionals, err
}

// create stores a single professional.
func (a *apiClient) create(p model.NewProfessional) (model.Professional, error) {
	var created model.Professional
	_, err := a.do(http.MethodPost, a.baseURL+"/professionals", p, http.StatusCreated, &created)
	return created, err
}

// bulk sends the items as one bulk request. items is encoded as it is, so that a file can be
// passed on without interpretation. The duration of the round trip is returned as well.
func (a *apiClient) bulk(items interface{}) (model.BulkResponse, time.Duration, error) {
	var response model.BulkResponse
	duration, err := a.do(http.MethodPost, a.baseURL+"/professionals/bulk", items, http.StatusOK, &response)
	return response, duration, err
}

func (a *apiClient) do(method string, requestURL string, body interface{}, want int, out interface{}) (time.Duration, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("could not marshal JSON: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("could not create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	before := time.Now()
	res, err := a.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error making http request: %w", err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, fmt.Errorf("could not read response body: %w", err)
	}
	duration := time.Since(before)
	if res.StatusCode != want {
		return duration, &apiError{Status: res.StatusCode, Body: string(resBody)}
	}
	if err := json.Unmarshal(resBody, out); err != nil {
		return duration, fmt.Errorf("could not unmarshal JSON: %w", err)
	}
	return duration, nil
}
