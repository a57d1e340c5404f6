package backend

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/cvboard/admin/internal/adapters/graphql"
	domainauth "github.com/cvboard/admin/internal/domain/auth"
	"github.com/cvboard/admin/internal/ports"
)

var _ ports.AuthAPI = (*AuthAPI)(nil)

// Transport posts one operation with an optional bearer token.
type Transport interface {
	Do(ctx context.Context, req graphql.Request, tok *oauth2.Token) (*graphql.Response, error)
}

// serverUser is the user shape the backend returns.
type serverUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Profile struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		FullName  *string `json:"full_name"`
		Avatar    *string `json:"avatar"`
	} `json:"profile"`
}

func (u serverUser) toDomain() domainauth.User {
	return domainauth.User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.Profile.FirstName,
		LastName:  u.Profile.LastName,
		FullName:  u.Profile.FullName,
		Avatar:    u.Profile.Avatar,
	}
}

type serverAuth struct {
	User         serverUser `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
}

// AuthAPI implements ports.AuthAPI over the GraphQL transport. Tokens are
// attached explicitly; errors are returned unclassified.
type AuthAPI struct {
	transport Transport
}

// NewAuthAPI constructs an AuthAPI.
func NewAuthAPI(t Transport) *AuthAPI {
	return &AuthAPI{transport: t}
}

func bearer(tok string) *oauth2.Token {
	if tok == "" {
		return nil
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}
}

func credentialsVars(email, password string) map[string]any {
	return map[string]any{"auth": map[string]any{"email": email, "password": password}}
}

func (a *AuthAPI) authenticate(ctx context.Context, op, query, field, email, password string) (domainauth.AuthResult, error) {
	resp, err := a.transport.Do(ctx, graphql.Request{
		OperationName: op,
		Query:         query,
		Variables:     credentialsVars(email, password),
	}, nil)
	if err != nil {
		return domainauth.AuthResult{}, err
	}

	var out serverAuth
	if err := resp.Decode(field, &out); err != nil {
		return domainauth.AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return domainauth.AuthResult{
		User:         out.User.toDomain(),
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}, nil
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (domainauth.AuthResult, error) {
	return a.authenticate(ctx, OpSignIn, signInQuery, "login", email, password)
}

func (a *AuthAPI) Register(ctx context.Context, email, password string) (domainauth.AuthResult, error) {
	return a.authenticate(ctx, OpSignUp, signUpMutation, "signup", email, password)
}

// UpdateToken presents the refresh token as the bearer credential.
func (a *AuthAPI) UpdateToken(ctx context.Context, refreshToken string) (string, error) {
	resp, err := a.transport.Do(ctx, graphql.Request{
		OperationName: OpUpdateToken,
		Query:         updateTokenMutation,
	}, bearer(refreshToken))
	if err != nil {
		return "", err
	}

	var access string
	if err := resp.Decode("updateToken.access_token", &access); err != nil {
		return "", fmt.Errorf("%s: %w", OpUpdateToken, err)
	}
	return access, nil
}

func (a *AuthAPI) UserAuthData(ctx context.Context, accessToken string, userID int32) (domainauth.User, error) {
	resp, err := a.transport.Do(ctx, graphql.Request{
		OperationName: OpUserAuthData,
		Query:         userAuthDataQuery,
		Variables:     map[string]any{"userId": userID},
	}, bearer(accessToken))
	if err != nil {
		return domainauth.User{}, err
	}

	var u serverUser
	if err := resp.Decode("user", &u); err != nil {
		return domainauth.User{}, fmt.Errorf("%s: %w", OpUserAuthData, err)
	}
	return u.toDomain(), nil
}
