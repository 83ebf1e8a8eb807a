package module

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
)

// Date represents a DICOM Date (DA VR)
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// IsZero reports an unset date, written as an empty Type 2 value
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func NewDate(t time.Time) Date {
	return Date{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
	}
}

// ParseDate reads a DA value, zero when malformed
func ParseDate(s string) Date {
	t, err := time.Parse("20060102", strings.TrimSpace(s))
	if err != nil {
		return Date{}
	}
	return NewDate(t)
}

// Time represents a DICOM Time (TM VR)
type Time struct {
	Hour   int
	Minute int
	Second int
	Nano   int
}

func (t Time) String() string {
	// Format as HHMMSS.FFFFFF
	return fmt.Sprintf("%02d%02d%02d.%06d", t.Hour, t.Minute, t.Second, t.Nano/1000)
}

func NewTime(t time.Time) Time {
	return Time{
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
		Nano:   t.Nanosecond(),
	}
}

// ParseTime reads a TM value; missing trailing components are zero
func ParseTime(s string) Time {
	s = strings.TrimSpace(s)
	var t Time
	whole, frac, _ := strings.Cut(s, ".")
	fields := []*int{&t.Hour, &t.Minute, &t.Second}
	for i := 0; i < len(fields) && len(whole) >= 2*(i+1); i++ {
		v, err := strconv.Atoi(whole[2*i : 2*i+2])
		if err != nil {
			return Time{}
		}
		*fields[i] = v
	}
	if frac != "" {
		frac = (frac + "000000")[:6]
		if us, err := strconv.Atoi(frac); err == nil {
			t.Nano = us * 1000
		}
	}
	return t
}

// PersonName represents a DICOM Person Name (PN VR)
type PersonName struct {
	FamilyName string
	GivenName  string
	MiddleName string
	Prefix     string
	Suffix     string
}

func (p PersonName) String() string {
	// DICOM format: Family^Given^Middle^Prefix^Suffix, trailing empty components dropped
	s := strings.Join([]string{p.FamilyName, p.GivenName, p.MiddleName, p.Prefix, p.Suffix}, "^")
	return strings.TrimRight(s, "^")
}

// ParsePersonName splits a PN value into its components
func ParsePersonName(s string) PersonName {
	parts := strings.SplitN(s, "^", 5)
	for len(parts) < 5 {
		parts = append(parts, "")
	}
	return PersonName{
		FamilyName: parts[0],
		GivenName:  parts[1],
		MiddleName: parts[2],
		Prefix:     parts[3],
		Suffix:     parts[4],
	}
}

// Common module interfaces
type IODModule interface {
	ToTags() []IODElement
}

type IODElement struct {
	Tag   tag.Tag
	Value interface{}
}

// FormatDS writes a Decimal String of at most 16 characters, dropping precision as needed
func FormatDS(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	for prec := 15; len(s) > 16 && prec > 0; prec-- {
		s = strconv.FormatFloat(v, 'g', prec, 64)
	}
	return s
}

// FormatDSList joins values as a multi-valued Decimal String
func FormatDSList(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = FormatDS(v)
	}
	return strings.Join(parts, "\\")
}

// FormatIS writes an Integer String
func FormatIS(v int) string {
	return strconv.Itoa(v)
}
