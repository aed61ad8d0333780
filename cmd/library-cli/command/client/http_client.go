package client

// http_client.go talks to the circulation API on behalf of the CLI.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"library-circulation/internal/circulation/dto"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

func (c *HTTPClient) Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	var out dto.SignupResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListBooks(ctx context.Context) (*dto.BookListResponse, error) {
	var out dto.BookListResponse
	if err := c.do(ctx, http.MethodGet, "/api/books", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetBook(ctx context.Context, id int64) (*dto.BookDetailResponse, error) {
	var out dto.BookDetailResponse
	if err := c.do(ctx, http.MethodGet, "/api/books/"+strconv.FormatInt(id, 10), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Borrow(ctx context.Context, studentID string, bookID int64) (*dto.BorrowResponse, error) {
	var out dto.BorrowResponse
	req := dto.BorrowRequest{StudentID: studentID, BookID: bookID}
	if err := c.do(ctx, http.MethodPost, "/api/borrowings", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Return(ctx context.Context, loanID string) (*dto.ReturnResponse, error) {
	var out dto.ReturnResponse
	path := "/api/borrowings/" + url.PathEscape(loanID) + "/return"
	if err := c.do(ctx, http.MethodPut, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListBorrowings(ctx context.Context, studentID string) (*dto.BorrowingListResponse, error) {
	var out dto.BorrowingListResponse
	if err := c.do(ctx, http.MethodGet, "/api/borrowings/"+url.PathEscape(studentID), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetLoan(ctx context.Context, loanID string) (*dto.BorrowingDetailResponse, error) {
	var out dto.BorrowingDetailResponse
	if err := c.do(ctx, http.MethodGet, "/api/loans/"+url.PathEscape(loanID), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return &APIError{StatusCode: resp.StatusCode, Message: failure.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
