// Package randomgen creates random professionals for load and integration tests.
package randomgen

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"gitlab.com/dirk.krummacker/professionals-service/pkg/model"
)

var firstNames = []string{"Erika", "Hans", "Julius", "Marcus", "Rudi", "Berta", "Aaron", "Carla", "Ines", "Tomas"}

var lastNames = []string{"Mustermann", "Wurst", "Cäsar", "Antonius", "Völler", "Chen", "Novak", "Costa", "Berg", "Ito"}

var companies = []string{"", "Acme", "Initech", "Globex", "Umbrella", "Hooli"}

var titles = []string{"", "Engineer", "CTO", "Recruiter", "Designer", "Sales Lead"}

var sources = []string{"direct", "partner", "internal"}

// Name returns a random full name.
func Name() string {
	return pick(firstNames) + " " + pick(lastNames)
}

// Email returns an email address that has not been returned before.
func Email() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "@example.com"
}

// Phone returns a phone number that is unique with very high probability. It fits into the 20
// characters allowed for phone numbers.
func Phone() string {
	return fmt.Sprintf("+%d %012d", rand.IntN(89)+10, rand.Int64N(1_000_000_000_000))
}

// Source returns one of the valid sources.
func Source() string {
	return pick(sources)
}

// Professional returns a random professional with an email, a phone, or both.
func Professional() model.NewProfessional {
	p := model.NewProfessional{
		FullName:    Name(),
		CompanyName: pick(companies),
		JobTitle:    pick(titles),
		Source:      Source(),
	}
	switch rand.IntN(3) {
	case 0:
		p.Email = ptr(Email())
	case 1:
		p.Phone = ptr(Phone())
	default:
		p.Email = ptr(Email())
		p.Phone = ptr(Phone())
	}
	return p
}

// Professionals returns n random professionals.
func Professionals(n int) []model.NewProfessional {
	out := make([]model.NewProfessional, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Professional())
	}
	return out
}

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}

func ptr(s string) *string {
	return &s
}
