package go2n

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is the per-call timeout applied when the caller does
// not inject an *http.Client. It is enforced through a context
// deadline per request rather than http.Client.Timeout, so event log
// long-polls can run past it.
const DefaultTimeout = 10 * time.Second

// newHTTPClient builds the private client used when the caller passes a
// nil *http.Client to NewDevice. SSLVerify only takes effect here; an
// injected client's transport is never reconfigured.
func newHTTPClient(conn ConnectionData) *http.Client {
	client := &http.Client{}
	if conn.Protocol == ProtocolHTTPS && !conn.SSLVerify {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client
}

// apiRequest is the single path through which every device operation
// issues its HTTP call. It attaches authentication, executes the
// request, and decodes the response envelope into the raw result
// payload. Query parameters are the only request input the 2N API
// uses; there is never a request body.
//
// Failed attempts propagate immediately. The only internal retry is
// the digest challenge answer, capped at one.
func (d *Device) apiRequest(ctx context.Context, method, path string, query url.Values) (json.RawMessage, error) {
	// The library-owned client has no session timeout of its own;
	// apply the default per call unless the caller already set a
	// deadline. Injected clients keep whatever policy the caller gave
	// them.
	if d.ownsClient {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
			defer cancel()
		}
	}

	endpoint := d.conn.BaseURL() + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, NewConnectivityError("failed to create request", err, d.conn.Host)
	}

	if d.conn.HasCredentials() && d.conn.AuthMethod == AuthBasic {
		req.SetBasicAuth(d.conn.Username, d.conn.Password)
	}

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, NewConnectivityError(fmt.Sprintf("%s %s failed", method, path), err, d.conn.Host)
	}

	// Digest flow: the unauthenticated attempt above received a
	// challenge; answer it with exactly one authenticated retry.
	if resp.StatusCode == http.StatusUnauthorized && d.conn.AuthMethod == AuthDigest && d.conn.HasCredentials() {
		challenge := resp.Header.Get("WWW-Authenticate")
		drainBody(resp)

		resp, err = d.retryWithDigest(ctx, method, endpoint, challenge)
		if err != nil {
			return nil, err
		}
	}
	defer drainBody(resp)

	d.logger.Debug("device request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, NewAuthenticationError("device rejected credentials")
	}

	return decodeEnvelope(resp)
}

// retryWithDigest issues the second request of the digest exchange
func (d *Device) retryWithDigest(ctx context.Context, method, endpoint, challenge string) (*http.Response, error) {
	parsed, err := parseDigestChallenge(challenge)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, NewConnectivityError("failed to create request", err, d.conn.Host)
	}

	authorization, err := parsed.authorization(d.conn.Username, d.conn.Password, method, req.URL.RequestURI())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authorization)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, NewConnectivityError("digest retry failed", err, d.conn.Host)
	}
	return resp, nil
}

// decodeEnvelope reads the response body and unwraps the API envelope.
// Device-reported errors surface as DeviceError with the envelope's
// code/param/description; an unparseable body on a 2xx status is a
// ProtocolError, on a non-2xx status a plain DeviceError.
func decodeEnvelope(resp *http.Response) (json.RawMessage, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewConnectivityError("failed to read response body", err, resp.Request.URL.Hostname())
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, NewDeviceError(resp.StatusCode, 0, "", "")
		}
		return nil, NewProtocolError("failed to parse JSON response", err)
	}

	if !envelope.Success {
		if envelope.Error != nil {
			return nil, NewDeviceError(resp.StatusCode, envelope.Error.Code, envelope.Error.Param, envelope.Error.Description)
		}
		return nil, NewDeviceError(resp.StatusCode, 0, "", "device reported failure without detail")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewDeviceError(resp.StatusCode, 0, "", "")
	}

	return envelope.Result, nil
}

// get issues a GET and decodes the result payload into out (out may be
// nil for endpoints whose result is irrelevant)
func (d *Device) get(ctx context.Context, path string, query url.Values, out any) error {
	result, err := d.apiRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}
	return unmarshalResult(result, out)
}

// post issues a POST command. 2N command endpoints take query
// parameters and return an empty result on success.
func (d *Device) post(ctx context.Context, path string, query url.Values) error {
	_, err := d.apiRequest(ctx, http.MethodPost, path, query)
	return err
}

// unmarshalResult decodes a result payload into out
func unmarshalResult(result json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if len(result) == 0 {
		return NewProtocolError("response missing result payload", nil)
	}
	if err := json.Unmarshal(result, out); err != nil {
		return NewProtocolError("failed to parse result payload", err)
	}
	return nil
}

// drainBody discards and closes a response body so the underlying
// connection can be reused
func drainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
