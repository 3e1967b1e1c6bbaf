package nip

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var validIDs = []string{
	"5260250995",
	"7790000008",
	"1234563218",
	"1111111111",
	"7010000005",
	"5250000015",
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"plain", "5260250995", true},
		{"dashes", "526-025-09-95", true},
		{"spaces and prefix", "PL 526 025 09 95", true},
		{"wrong check digit", "5260250994", false},
		{"too short", "526025099", false},
		{"too long", "52602509955", false},
		{"letters", "52602509A5", false},
		{"empty", "", false},
		// weighted sum of 1000000000 is 6, residue 6
		{"residue matches", "1000000006", true},
		// weighted sum of 000000002 is 14, residue 3
		{"zero prefix", "0000000023", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.in))
		})
	}
}

func TestValidRejectsResidueTen(t *testing.T) {
	for n := 0; n < 1000; n++ {
		prefix := fmt.Sprintf("%09d", n)
		sum := 0
		for i, w := range weights {
			sum += int(prefix[i]-'0') * w
		}
		if sum%11 != 10 {
			continue
		}
		for d := 0; d <= 9; d++ {
			id := fmt.Sprintf("%s%d", prefix, d)
			assert.False(t, Valid(id), "residue 10 must never validate: %s", id)
		}
		return
	}
	t.Fatal("no residue-10 prefix found")
}

func TestValidSingleDigitMutation(t *testing.T) {
	for _, id := range validIDs {
		assert.True(t, Valid(id), id)

		for pos := 0; pos < len(id); pos++ {
			for d := byte('0'); d <= '9'; d++ {
				if id[pos] == d {
					continue
				}
				mutated := []byte(id)
				mutated[pos] = d
				assert.False(t, Valid(string(mutated)), "mutation %s of %s must be invalid", mutated, id)
			}
		}
	}
}

func ExampleValid() {
	fmt.Println(Valid("526-025-09-95"))
	fmt.Println(Valid("5260250994"))
	// Output:
	// true
	// false
}
