package money

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TestDataGenerator produces realistic spending data for tests and local
// seeding.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(0)}
}

// NewTestDataGeneratorWithSeed creates a generator with a fixed seed for
// reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// TestExpense is a generated expense record.
type TestExpense struct {
	ID       uuid.UUID
	Datetime time.Time
	Note     string
	Amount   *Money
	Category string
}

var expenseCategories = []string{
	"food", "transportation", "entertainment", "utilities",
	"shopping", "health", "travel", "other",
}

var noteTemplates = []string{
	"Lunch at %s",
	"Groceries from %s",
	"Ride to %s",
	"Tickets for %s",
	"Monthly bill from %s",
	"Ordered from %s",
}

// Expense generates a single random expense.
func (g *TestDataGenerator) Expense(currency string) TestExpense {
	return TestExpense{
		ID:       uuid.New(),
		Datetime: g.faker.DateRange(time.Now().AddDate(0, -3, 0), time.Now()),
		Note:     g.Note(),
		Amount:   g.RandomAmount(currency, 1, 50000), // up to $500.00
		Category: g.Category(),
	}
}

// Expenses generates count random expenses.
func (g *TestDataGenerator) Expenses(currency string, count int) []TestExpense {
	out := make([]TestExpense, count)
	for i := range out {
		out[i] = g.Expense(currency)
	}
	return out
}

// RandomAmount generates a random Money value within a cent range.
func (g *TestDataGenerator) RandomAmount(currency string, minCents, maxCents int64) *Money {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	cents := g.faker.Int64() % (maxCents - minCents + 1)
	if cents < 0 {
		cents = -cents
	}
	return New(minCents+cents, currency)
}

// RandomDecimalAmount generates a two-decimal amount in dollars.
func (g *TestDataGenerator) RandomDecimalAmount(minDollars, maxDollars float64) decimal.Decimal {
	v := g.faker.Float64Range(minDollars, maxDollars)
	return decimal.NewFromFloat(v).Round(2)
}

// Category picks one of the stock expense categories.
func (g *TestDataGenerator) Category() string {
	return g.faker.RandomString(expenseCategories)
}

// Note generates a short expense note mentioning a merchant.
func (g *TestDataGenerator) Note() string {
	template := g.faker.RandomString(noteTemplates)
	return fmt.Sprintf(template, g.faker.Company())
}

// Email generates a plausible user email.
func (g *TestDataGenerator) Email() string {
	return g.faker.Email()
}

// Username generates a plausible username.
func (g *TestDataGenerator) Username() string {
	return g.faker.Username()
}
