package phonetic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyWordEquivalents(t *testing.T) {
	t.Parallel()

	require.Equal(t, Key("mein"), Key("main"))
	require.Equal(t, Key("main"), Key("mei"))
	require.Equal(t, Key("mn"), Key("mei"))
	require.Equal(t, Key("nahin"), Key("nahi"))
	require.Equal(t, Key("nahi"), Key("nahee"))
	require.Equal(t, Key("nai"), Key("nahee"))
	require.Equal(t, Key("kia"), Key("kya"))
	require.Equal(t, Key("hainnn"), Key("hain"))
	require.Equal(t, Key("meraah"), Key("mera"))
}

func TestKeyWordRulesRespectBoundaries(t *testing.T) {
	t.Parallel()

	require.Equal(t, "dumain", Key("domain"))
	require.Equal(t, "mai", Key("main"))
}

func TestKeyWordRulesTreatAccentedLettersAsWordCharacters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "mainé", want: "mainé"},
		{in: "émain", want: "émain"},
		{in: "kiaà", want: "kiaà"},
		{in: "main\u0301", want: "main\u0301"},
		{in: "shahé", want: "shahé"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Key(tt.in))
		})
	}
}

func TestKeyWordRulesMatchAdjacentWords(t *testing.T) {
	t.Parallel()

	require.Equal(t, "mai mai mai", Key("mein main mn"))
	require.Equal(t, "kya kya", Key("kia kia"))
	require.Equal(t, "ya ala ya ala", Key("ya allah ya allah"))
}

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "  Ya Hussain  ", want: "ya husain"},
		{in: "Shaheed", want: "shahid"},
		{in: "Ghazi", want: "gazi"},
		{in: "Khuda", want: "xuda"},
		{in: "Phool", want: "ful"},
		{in: "Qasida", want: "kasida"},
		{in: "Charagh", want: "charag"},
		{in: "Cabar", want: "kabar"},
		{in: "Cina", want: "sina"},
		{in: "Ocrim", want: "ucrim"},
		{in: "Allah", want: "ala"},
		{in: "Ya-Ali!!", want: "ya ali"},
		{in: "Pie", want: "pi"},
		{in: "kiaa", want: "kya"},
		{in: "Mein Nahin   Bhoola", want: "mai nahi bula"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Key(tt.in))
		})
	}
}

func TestKeyCaseAndTrimInsensitive(t *testing.T) {
	t.Parallel()

	require.Equal(t, Key("Ya Hussain"), Key("  YA HUSSAIN\t"))
	require.Equal(t, Key("Ya Hussain"), Key("ya husain"))
}

func TestKeyIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Ya Hussain", "Pie", "kiaa", "Meinn", "Mnn", "Aao Karbala", "Zainab (s.a.)",
		"Shaheed-e-Karbala", "Mera Hussain Hai", "Nohay 2024", "یا حسین",
		"Cyclic  cocoa", "Moula Abbas", "uo ie", "Noooo",
	}
	for _, in := range inputs {
		once := Key(in)
		require.Equal(t, once, Key(once), "input %q", in)
	}
}

func TestKeyLeavesNonLatinLetters(t *testing.T) {
	t.Parallel()

	require.Equal(t, "یا حسین", Key("  یا، حسین  "))
	require.Equal(t, "ya حسین 12", Key("Ya حسین 12!"))
}
