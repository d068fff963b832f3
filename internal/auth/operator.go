package auth

import (
	"errors"
	"sync"
)

var (
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOperatorExists     = errors.New("operator already exists")
)

// Operator is an account allowed to use the operational API.
type Operator struct {
	ID           string
	Name         string
	Role         string
	PasswordHash string
}

// OperatorStore holds operator accounts in memory. Accounts are seeded at
// startup from configuration; there is no self-service signup.
type OperatorStore struct {
	mu        sync.RWMutex
	operators map[string]*Operator
}

func NewOperatorStore() *OperatorStore {
	return &OperatorStore{operators: make(map[string]*Operator)}
}

// Seed registers an operator account with a pre-hashed password.
func (s *OperatorStore) Seed(op Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.operators[op.Name]; exists {
		return ErrOperatorExists
	}
	stored := op
	s.operators[op.Name] = &stored
	return nil
}

// SeedWithPassword hashes the password and registers the account.
func (s *OperatorStore) SeedWithPassword(id, name, role, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.Seed(Operator{ID: id, Name: name, Role: role, PasswordHash: hash})
}

// Authenticate checks the credentials and returns the matching operator.
func (s *OperatorStore) Authenticate(name, password string) (*Operator, error) {
	s.mu.RLock()
	op, ok := s.operators[name]
	s.mu.RUnlock()
	if !ok {
		// Burn a comparison anyway so a missing name costs the same as a
		// wrong password.
		CheckPassword(password, "$2a$12$invalidinvalidinvalidinvalidinvalidinvalida")
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(password, op.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	found := *op
	return &found, nil
}
