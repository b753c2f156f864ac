package students

import (
	"context"
	"time"
)

// Verification is the public certificate check result.
type Verification struct {
	Student          Student   `json:"student"`
	IsCleared        bool      `json:"isCleared"`
	VerificationDate time.Time `json:"verificationDate"`
}

// Verify resolves key through VerifyLookup and re-derives clearance. It never mutates state.
func (s *Service) Verify(ctx context.Context, key string) (Verification, error) {
	st, err := Resolve(ctx, s.Repo, VerifyLookup, key)
	if err != nil {
		return Verification{}, err
	}
	return Verification{
		Student:          st,
		IsCleared:        st.IsCleared(),
		VerificationDate: s.now(),
	}, nil
}
