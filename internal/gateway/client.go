package gateway

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

const (
	ProductionURL = "https://ws.pagseguro.uol.com.br"
	SandboxURL    = "https://ws.sandbox.pagseguro.uol.com.br"

	defaultTimeout = 15 * time.Second
)

// BaseURL returns the notifications API host for the selected environment.
func BaseURL(sandbox bool) string {
	if sandbox {
		return SandboxURL
	}
	return ProductionURL
}

// Client queries the PagSeguro v3 notifications API. It performs exactly one
// request per call.
type Client struct {
	baseURL string
	email   string
	token   string
	client  *http.Client
}

func NewClient(baseURL, email, token string, timeout time.Duration) (*Client, error) {
	email = strings.TrimSpace(email)
	token = strings.TrimSpace(token)
	if email == "" || token == "" {
		return nil, ErrMissingCredentials
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Verify(ctx context.Context, code string) (*Transaction, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrEmptyToken
	}

	u, err := url.Parse(c.baseURL + "/v3/transactions/notifications/" + url.PathEscape(code))
	if err != nil {
		return nil, err
	}
	values := url.Values{}
	values.Set("email", c.email)
	values.Set("token", c.token)
	u.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &RejectedError{Err: redact(err, c.token)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rejection(resp)
	}

	var body transactionXML
	if err := decodeXML(resp.Body, &body); err != nil {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Message: "invalid transaction payload", Err: err}
	}
	return body.toTransaction(), nil
}

func rejection(resp *http.Response) *RejectedError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	rej := &RejectedError{StatusCode: resp.StatusCode}

	var errs errorsXML
	if err := decodeXML(strings.NewReader(string(raw)), &errs); err == nil && len(errs.Errors) > 0 {
		rej.Errors = errs.Errors
		return rej
	}
	rej.Message = strings.TrimSpace(string(raw))
	if rej.Message == "" {
		rej.Message = http.StatusText(resp.StatusCode)
	}
	return rej
}

func decodeXML(r io.Reader, out any) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(label) {
		case "iso-8859-1", "latin1", "latin-1":
			return charmap.ISO8859_1.NewDecoder().Reader(input), nil
		case "utf-8", "utf8":
			return input, nil
		}
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return dec.Decode(out)
}

// redact strips the account token from transport errors, which embed the
// request URL.
func redact(err error, token string) error {
	var uerr *url.Error
	if token == "" || !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{Op: uerr.Op, URL: strings.ReplaceAll(uerr.URL, token, "***"), Err: uerr.Err}
}

// XML payload types

type transactionXML struct {
	XMLName       xml.Name `xml:"transaction"`
	Date          string   `xml:"date"`
	Code          string   `xml:"code"`
	Reference     string   `xml:"reference"`
	Type          int      `xml:"type"`
	Status        int      `xml:"status"`
	LastEventDate string   `xml:"lastEventDate"`
	PaymentMethod struct {
		Type int `xml:"type"`
		Code int `xml:"code"`
	} `xml:"paymentMethod"`
}

type errorsXML struct {
	XMLName xml.Name    `xml:"errors"`
	Errors  []ErrorItem `xml:"error"`
}

func (t transactionXML) toTransaction() *Transaction {
	date, _ := time.Parse(time.RFC3339, strings.TrimSpace(t.Date))
	lastEvent, _ := time.Parse(time.RFC3339, strings.TrimSpace(t.LastEventDate))
	return &Transaction{
		Code:          strings.TrimSpace(t.Code),
		Reference:     strings.TrimSpace(t.Reference),
		Type:          t.Type,
		Status:        ParseStatus(t.Status),
		PaymentMethod: PaymentMethodType(t.PaymentMethod.Type),
		Date:          date,
		LastEvent:     lastEvent,
	}
}
