package entity

// ParentContact is one guardian taken from a roster row. Email is the
// lowercased identity key.
type ParentContact struct {
	DisplayName string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
}

// ContactMapping keeps contacts keyed by email in first-insertion order.
type ContactMapping struct {
	order    []string
	contacts map[string]ParentContact
}

func NewContactMapping() *ContactMapping {
	return &ContactMapping{contacts: make(map[string]ParentContact)}
}

// Add stores contact unless its email is already present and reports
// whether it was stored.
func (m *ContactMapping) Add(contact ParentContact) bool {
	if _, ok := m.contacts[contact.Email]; ok {
		return false
	}
	m.contacts[contact.Email] = contact
	m.order = append(m.order, contact.Email)
	return true
}

func (m *ContactMapping) Get(email string) (ParentContact, bool) {
	contact, ok := m.contacts[email]
	return contact, ok
}

func (m *ContactMapping) Len() int {
	return len(m.order)
}

func (m *ContactMapping) Contacts() []ParentContact {
	out := make([]ParentContact, 0, len(m.order))
	for _, email := range m.order {
		out = append(out, m.contacts[email])
	}
	return out
}

// Without returns the contacts whose email is not in existing, in
// insertion order.
func (m *ContactMapping) Without(existing EmailSet) []ParentContact {
	out := make([]ParentContact, 0, len(m.order))
	for _, email := range m.order {
		if existing.Has(email) {
			continue
		}
		out = append(out, m.contacts[email])
	}
	return out
}

// EmailSet holds lowercased emails already present in the CRM.
type EmailSet map[string]struct{}

func (s EmailSet) Add(email string) {
	s[email] = struct{}{}
}

func (s EmailSet) Has(email string) bool {
	_, ok := s[email]
	return ok
}
