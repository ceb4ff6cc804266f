package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumbersSortsInput(t *testing.T) {
	assert.Equal(t, "4,8,15,16,23,42", FormatNumbers([]int{42, 8, 15, 4, 23, 16}))
	assert.Equal(t, "", FormatNumbers(nil))
}

func TestParseNumbers(t *testing.T) {
	nums, err := ParseNumbers("4, 8,15,16,23,42")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 8, 15, 16, 23, 42}, nums)

	_, err = ParseNumbers("4,x,15")
	assert.Error(t, err)
}

func TestFormatParseRoundTrip(t *testing.T) {
	nums, err := ParseNumbers(FormatNumbers([]int{60, 1, 33}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 33, 60}, nums)
}

func TestValidateTicket(t *testing.T) {
	assert.NoError(t, ValidateTicket([]int{1, 2, 3, 4, 5, 6}, TicketSize, TicketSize))
	assert.NoError(t, ValidateTicket([]int{1, 2, 3, 4, 5, 6, 7}, TicketSize, 15))

	assert.Error(t, ValidateTicket([]int{1, 2, 3}, TicketSize, TicketSize), "too few numbers")
	assert.Error(t, ValidateTicket([]int{1, 2, 3, 4, 5, 61}, TicketSize, TicketSize), "out of range")
	assert.Error(t, ValidateTicket([]int{1, 2, 3, 4, 5, 5}, TicketSize, TicketSize), "duplicate")
	assert.Error(t, ValidateTicket([]int{0, 2, 3, 4, 5, 6}, TicketSize, TicketSize), "below range")
}

func TestParseDrawDate(t *testing.T) {
	date, err := ParseDrawDate("2009-12-31")
	require.NoError(t, err)
	assert.Equal(t, 2009, date.Year())

	_, err = ParseDrawDate("31/12/2009")
	assert.Error(t, err)
}
