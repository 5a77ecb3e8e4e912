package untis

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// qrLogin is the content of a WebUntis mobile-app QR code.
type qrLogin struct {
	Server string
	School string
	User   string
	Secret string
}

func parseQRCode(raw string) (qrLogin, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return qrLogin{}, &AuthError{Reason: "malformed qr code", Err: err}
	}
	if parsed.Scheme != "untis" {
		return qrLogin{}, &AuthError{Reason: "qr code is not an untis:// link"}
	}
	query := parsed.Query()
	login := qrLogin{
		Server: query.Get("url"),
		School: query.Get("school"),
		User:   query.Get("user"),
		Secret: query.Get("key"),
	}
	if login.Server == "" || login.School == "" || login.User == "" || login.Secret == "" {
		return qrLogin{}, &AuthError{Reason: "qr code is missing url, school, user or key"}
	}
	return login, nil
}

// totp computes an RFC 6238 code (30s step, 6 digits, HMAC-SHA1).
func totp(secret string, at time.Time) (string, error) {
	normalized := strings.ToUpper(strings.TrimRight(strings.ReplaceAll(secret, " ", ""), "="))
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(normalized)
	if err != nil {
		return "", err
	}
	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], uint64(at.Unix()/30))
	mac := hmac.New(sha1.New, key)
	mac.Write(counter[:])
	sum := mac.Sum(nil)
	offset := sum[len(sum)-1] & 0x0f
	code := (binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff) % 1000000
	return fmt.Sprintf("%06d", code), nil
}

type passwordLoginResult struct {
	SessionID  string `json:"sessionId"`
	PersonType int    `json:"personType"`
	PersonID   int    `json:"personId"`
	KlasseID   int    `json:"klasseId"`
}

type qrLoginResult struct {
	UserData struct {
		ElemType string `json:"elemType"`
		ElemID   int    `json:"elemId"`
		KlasseID int    `json:"klasseId"`
	} `json:"userData"`
}

// Authenticate opens a session and obtains a bearer token for the REST API.
func (c *Client) Authenticate(ctx context.Context, cred Credential) (*AuthContext, error) {
	if !cred.Valid() {
		return nil, &AuthError{Reason: "incomplete credentials"}
	}
	var (
		auth *AuthContext
		err  error
	)
	if cred.IsQR() {
		auth, err = c.loginQR(ctx, cred.QRCode)
	} else {
		auth, err = c.loginPassword(ctx, cred)
	}
	if err != nil {
		return nil, err
	}

	token, err := c.getRaw(ctx, auth, "/WebUntis/api/token/new", nil)
	if err != nil {
		_ = c.Logout(ctx, auth)
		return nil, classifyLoginError(fmt.Errorf("token: %w", err))
	}
	auth.Bearer = strings.TrimSpace(string(token))
	if claims, err := parseBearer(auth.Bearer); err == nil {
		auth.ExpiresAt = claims.expiresAt()
		if auth.PersonID == 0 {
			auth.PersonID = claims.personID()
		}
	}
	return auth, nil
}

func (c *Client) loginPassword(ctx context.Context, cred Credential) (*AuthContext, error) {
	var result passwordLoginResult
	cookies, err := c.rpc(ctx, cred.Server, "/WebUntis/jsonrpc.do", url.Values{"school": {cred.School}}, nil, "authenticate", map[string]string{
		"user":     cred.Username,
		"password": cred.Password,
		"client":   c.clientName,
	}, &result)
	if err != nil {
		return nil, classifyLoginError(err)
	}
	if result.SessionID == "" {
		return nil, &AuthError{Reason: "no session returned"}
	}
	cookies = withSessionCookie(cookies, result.SessionID)
	return &AuthContext{
		Server:     cred.Server,
		School:     cred.School,
		Cookies:    append(cookies, schoolCookie(cred.School)),
		PersonID:   result.PersonID,
		PersonType: result.PersonType,
		ClassID:    result.KlasseID,
	}, nil
}

func (c *Client) loginQR(ctx context.Context, raw string) (*AuthContext, error) {
	login, err := parseQRCode(raw)
	if err != nil {
		return nil, err
	}
	now := c.now()
	otp, err := totp(login.Secret, now)
	if err != nil {
		return nil, &AuthError{Reason: "qr secret is not base32", Err: err}
	}
	params := []map[string]any{{
		"auth": map[string]any{
			"clientTime": now.UnixMilli(),
			"user":       login.User,
			"otp":        otp,
		},
	}}
	query := url.Values{"m": {"getUserData2017"}, "school": {login.School}, "v": {"i2.2"}}
	var result qrLoginResult
	cookies, err := c.rpc(ctx, login.Server, "/WebUntis/jsonrpc_intern.do", query, nil, "getUserData2017", params, &result)
	if err != nil {
		return nil, classifyLoginError(err)
	}
	personType := 0
	if strings.EqualFold(result.UserData.ElemType, "STUDENT") {
		personType = elementTypeStudent
	}
	return &AuthContext{
		Server:     login.Server,
		School:     login.School,
		Cookies:    append(cookies, schoolCookie(login.School)),
		PersonID:   result.UserData.ElemID,
		PersonType: personType,
		ClassID:    result.UserData.KlasseID,
	}, nil
}

func withSessionCookie(cookies []*http.Cookie, sessionID string) []*http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == "JSESSIONID" {
			return cookies
		}
	}
	return append(cookies, &http.Cookie{Name: "JSESSIONID", Value: sessionID})
}

func classifyLoginError(err error) error {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return &AuthError{Reason: "login rejected", Err: err}
	}
	switch StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Reason: "login rejected", Err: err}
	}
	return fmt.Errorf("login: %w", err)
}

// Logout releases the server-side session.
func (c *Client) Logout(ctx context.Context, auth *AuthContext) error {
	if auth == nil {
		return nil
	}
	return c.sessionRPC(ctx, auth, "logout", map[string]any{}, nil)
}
