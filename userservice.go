package auth

import "context"

// UserService fetches users from the auth endpoint: one Authenticate call,
// then a merge into a fresh User.
type UserService struct {
	client *Client
	logger Logger
}

func NewUserService(client *Client) *UserService {
	if client == nil {
		client = NewClient()
	}
	return &UserService{client: client, logger: defLogger{}}
}

func (s *UserService) WithLogger(logger Logger) *UserService {
	s.logger = logger
	return s
}

// Fetch authenticates req and returns the populated user along with the raw
// response (callers persist the response, not the user). A success envelope
// without a profile is a fetch failure.
func (s *UserService) Fetch(ctx context.Context, req AuthRequest) (*User, *AuthResponse, error) {
	resp, err := s.client.Authenticate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if resp.Profile == nil {
		return nil, nil, ErrMissingProfile
	}

	user := NewUser()
	UpdateUser(user, resp, req.Scope())
	return user, resp, nil
}
