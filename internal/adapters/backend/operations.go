// Package backend binds the BFF's needs to concrete GraphQL operations of the CV backend.
package backend

// Operation names as sent in the envelope's operationName.
const (
	OpSignIn       = "SIGN_IN"
	OpSignUp       = "SIGN_UP"
	OpUpdateToken  = "UPDATE_TOKEN"
	OpUserAuthData = "USER_AUTH_DATA"
	OpUser         = "USER"
	OpCv           = "CV"
)

// ExemptOperations never trigger a silent refresh: they either mint tokens or
// run without any.
var ExemptOperations = []string{OpUpdateToken, OpSignIn, OpSignUp}

const authFields = `
    user {
      id
      email
      profile { first_name last_name full_name avatar }
    }
    access_token
    refresh_token`

const (
	signInQuery = `query SIGN_IN($auth: AuthInput!) {
  login(auth: $auth) {` + authFields + `
  }
}`

	signUpMutation = `mutation SIGN_UP($auth: AuthInput!) {
  signup(auth: $auth) {` + authFields + `
  }
}`

	updateTokenMutation = `mutation UPDATE_TOKEN {
  updateToken { access_token }
}`

	userAuthDataQuery = `query USER_AUTH_DATA($userId: Int!) {
  user(userId: $userId) {
    id
    email
    profile { first_name last_name full_name avatar }
  }
}`

	userQuery = `query USER($userId: Int!) {
  user(userId: $userId) {
    id
    email
    created_at
    is_verified
    role
    profile { first_name last_name full_name avatar }
    department { id name }
    position { id name }
  }
}`

	cvQuery = `query CV($cvId: Int!) {
  cv(cvId: $cvId) {
    id
    name
    education
    description
    user { id email }
  }
}`
)
