package customers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/billing/internal/model"
)

// FileName is the customer list inside a data directory.
const FileName = "customers.csv"

// Service provides in-memory lookup over the customer list.
type Service struct {
	customers []model.Customer
	byName    map[string]model.Customer
}

// NewService creates a Service from a slice of customers.
func NewService(customers []model.Customer) *Service {
	byName := make(map[string]model.Customer, len(customers))
	for _, c := range customers {
		byName[key(c.Name)] = c
	}
	return &Service{customers: customers, byName: byName}
}

// Load reads customers.csv from a data directory. A missing file is an
// empty customer list.
func Load(dataDir string) (*Service, error) {
	path := filepath.Join(dataDir, FileName)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewService(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening customers: %w", err)
	}
	defer f.Close()

	list, err := ReadCustomers(f)
	if err != nil {
		return nil, fmt.Errorf("reading customers: %w", err)
	}
	return NewService(list), nil
}

// All returns all customers.
func (s *Service) All() []model.Customer {
	return s.customers
}

// Get returns a customer by name. Names match case-insensitively.
func (s *Service) Get(name string) (model.Customer, bool) {
	c, ok := s.byName[key(name)]
	return c, ok
}

// Exists reports whether a customer name is known.
func (s *Service) Exists(name string) bool {
	_, ok := s.byName[key(name)]
	return ok
}

// Add appends a new customer. Duplicate names are rejected.
func (s *Service) Add(c model.Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return errors.New("customer name is required")
	}
	if s.Exists(c.Name) {
		return fmt.Errorf("customer %q already exists", c.Name)
	}
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if c.Currency != "" && len(c.Currency) != 3 {
		return fmt.Errorf("currency %q is not a 3-letter code", c.Currency)
	}
	s.customers = append(s.customers, c)
	s.byName[key(c.Name)] = c
	return nil
}

// Save writes the customer list to customers.csv in dataDir.
func (s *Service) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(dataDir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating customers file: %w", err)
	}
	defer f.Close()

	if err := WriteCustomers(f, s.customers); err != nil {
		return fmt.Errorf("writing customers: %w", err)
	}
	return nil
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
