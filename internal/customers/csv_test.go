package customers

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/billing/internal/model"
)

func TestRoundTrip(t *testing.T) {
	list := []model.Customer{
		{Name: "Acme Ltd", Email: "accounts@acme.example", Address: "12 Long Street, Cape Town", Currency: "ZAR"},
		{Name: `Smith "Plumbing"`, Phone: "082 555 0101"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCustomers(&buf, list))
	assert.True(t, strings.HasPrefix(buf.String(), "name,email,"))

	got, err := ReadCustomers(&buf)
	require.NoError(t, err)
	assert.Equal(t, list, got)
}

func TestReadCustomers_HeaderOnly(t *testing.T) {
	got, err := ReadCustomers(strings.NewReader("name,email,phone,address,currency\n"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadCustomers_EmptyName(t *testing.T) {
	_, err := ReadCustomers(strings.NewReader("name,email,phone,address,currency\n,a@b.c,,,\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadCustomers_WrongFieldCount(t *testing.T) {
	_, err := ReadCustomers(strings.NewReader("name,email\nAcme,x\n"))
	assert.Error(t, err)
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/customers.csv")
	require.NoError(t, err)
	defer f.Close()

	list, err := ReadCustomers(f)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Acme Ltd", list[0].Name)
	assert.Equal(t, "12 Long Street, Cape Town", list[0].Address)
	assert.Equal(t, "USD", list[1].Currency)
	assert.Empty(t, list[2].Currency)
}
