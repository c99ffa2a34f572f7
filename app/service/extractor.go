package service

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tylercasey2263/hubspot-contact-upload/app/entity"
)

// ParentSlots is the number of repeated Parent N column groups per roster row.
const ParentSlots = 4

var ErrMissingHeader = errors.New("roster file has no header row")

type Extractor struct {
	reservedDomains []string
}

func NewExtractor(reservedDomains []string) *Extractor {
	return &Extractor{reservedDomains: reservedDomains}
}

// ExtractFile reads the roster at path. Only open and CSV syntax errors are
// returned; unusable parent slots are skipped.
func (e *Extractor) ExtractFile(path string) (*entity.ContactMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	return e.Extract(f)
}

func (e *Extractor) Extract(r io.Reader) (*entity.ContactMapping, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	columns := headerIndex(header)

	contacts := entity.NewContactMapping()
	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster row %d: %w", rows+2, err)
		}
		rows++

		for slot := 1; slot <= ParentSlots; slot++ {
			contact, ok := e.parentFromRow(record, columns, slot)
			if !ok {
				continue
			}
			contacts.Add(contact)
		}
	}

	logrus.WithFields(logrus.Fields{
		"rows":     rows,
		"contacts": contacts.Len(),
	}).Debug("Roster parsed")

	return contacts, nil
}

func (e *Extractor) parentFromRow(record []string, columns map[string]int, slot int) (entity.ParentContact, bool) {
	prefix := fmt.Sprintf("Parent %d ", slot)
	name := strings.TrimSpace(field(record, columns, prefix+"Name"))
	email := NormalizeEmail(field(record, columns, prefix+"Email"))
	phone := strings.TrimSpace(field(record, columns, prefix+"Phone"))

	if email == "" || IsReservedEmail(email, e.reservedDomains) {
		return entity.ParentContact{}, false
	}

	first, last := SplitName(name)
	return entity.ParentContact{
		DisplayName: name,
		FirstName:   first,
		LastName:    last,
		Email:       email,
		Phone:       phone,
	}, true
}

func newCSVReader(r io.Reader) *csv.Reader {
	br := bufio.NewReader(r)
	// Spreadsheet exports often start with a UTF-8 byte order mark.
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

func headerIndex(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, name := range header {
		// A repeated column name resolves to its last occurrence.
		m[strings.TrimSpace(name)] = i
	}
	return m
}

func field(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
