package utils

import (
    "regexp"
    "testing"

    "github.com/stretchr/testify/assert"
)

var orderNumberPattern = regexp.MustCompile(`^PED-\d{14}-[0-9A-F]{8}$`)

func TestGenerateOrderNumberFormat(t *testing.T) {
    number := GenerateOrderNumber()
    assert.Regexp(t, orderNumberPattern, number)
}

func TestGenerateOrderNumberUnique(t *testing.T) {
    seen := make(map[string]bool)
    for i := 0; i < 100; i++ {
        number := GenerateOrderNumber()
        assert.False(t, seen[number], "número repetido: %s", number)
        seen[number] = true
    }
}

func TestGenerateRandomString(t *testing.T) {
    s := GenerateRandomString(32)
    assert.Len(t, s, 32)
    assert.NotEqual(t, s, GenerateRandomString(32))
}
