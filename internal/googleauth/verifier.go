package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
)

const (
	tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	userInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Profile is the normalized identity record returned by Google for a verified
// credential.
type Profile struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// Verifier checks an externally issued Google credential. The token may be an
// ID token (One Tap) or an access token; ID-token introspection is tried
// first, then the userinfo endpoint with the token as a bearer credential.
type Verifier struct {
	clientID string
	client   *http.Client
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{
		clientID: strings.TrimSpace(clientID),
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Profile, error) {
	if strings.TrimSpace(token) == "" {
		return nil, appErr.ErrUnauthorized
	}
	profile, err := v.verifyIDToken(ctx, token)
	if err == nil {
		return profile, nil
	}
	logutil.GetLogger(ctx).Debug("id token introspection failed, trying userinfo", zap.Error(err))
	profile, err = v.verifyAccessToken(ctx, token)
	if err != nil {
		return nil, appErr.ErrUnauthorized
	}
	return profile, nil
}

type tokenInfoResponse struct {
	Sub     string `json:"sub"`
	Aud     string `json:"aud"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (v *Verifier) verifyIDToken(ctx context.Context, token string) (*Profile, error) {
	endpoint := tokenInfoURL + "?" + url.Values{"id_token": {token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tokeninfo rejected token: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Sub == "" {
		return nil, fmt.Errorf("tokeninfo response has no subject")
	}
	if v.clientID != "" && out.Aud != v.clientID {
		return nil, fmt.Errorf("token audience mismatch")
	}
	return &Profile{GoogleID: out.Sub, Email: out.Email, Name: out.Name, Picture: out.Picture}, nil
}

type userInfoResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (v *Verifier) verifyAccessToken(ctx context.Context, token string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo rejected token: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("userinfo response has no id")
	}
	return &Profile{GoogleID: out.ID, Email: out.Email, Name: out.Name, Picture: out.Picture}, nil
}
