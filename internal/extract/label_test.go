package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		page   string
		label  string
		want   string
		wantOK bool
	}{
		{
			name:   "same text node",
			page:   `<p>Shayar: Rehan Azmi</p>`,
			label:  "Shayar:",
			want:   "Rehan Azmi",
			wantOK: true,
		},
		{
			name:   "bold label sibling value",
			page:   `<p><b>Nohakhan:</b> Nadeem Sarwar</p>`,
			label:  "Nohakhan:",
			want:   "Nadeem Sarwar",
			wantOK: true,
		},
		{
			name:  "value in next block",
			page:  `<div><p>Nohakhan:</p><p>Mir Hasan Mir</p></div>`,
			label: "Nohakhan:",
		},
		{
			name:  "next label in sibling block",
			page:  `<div><p>Nohakhan:</p><p>Shayar: Mir Anees</p></div>`,
			label: "Nohakhan:",
		},
		{
			name:  "empty bold label before next paragraph",
			page:  `<p><b>Nohakhan:</b></p><p><b>Shayar:</b> Mir Anees</p>`,
			label: "Nohakhan:",
		},
		{
			name:  "bold label followed by line break",
			page:  `<p><b>Nohakhan:</b><br>Shayar: Mir Anees</p>`,
			label: "Nohakhan:",
		},
		{
			name:   "bold label value stops at line break",
			page:   `<p><b>Nohakhan:</b> Nadeem <i>Sarwar</i><br>Shayar: Mir Anees</p>`,
			label:  "Nohakhan:",
			want:   "Nadeem Sarwar",
			wantOK: true,
		},
		{
			name:   "label split across inline elements",
			page:   `<p>Noha<i>khan:</i> Ali Shanawar</p>`,
			label:  "Nohakhan:",
			want:   "Ali Shanawar",
			wantOK: true,
		},
		{
			name:   "label and value on separate source lines",
			page:   "<p><b>Shayar:</b>\n   Mir Anees\n</p>",
			label:  "Shayar:",
			want:   "Mir Anees",
			wantOK: true,
		},
		{
			name:   "stops at line end",
			page:   `<div>Nohakhan: Ali Shanawar<br>Shayar: Zahid</div>`,
			label:  "Nohakhan:",
			want:   "Ali Shanawar",
			wantOK: true,
		},
		{
			name:   "nested value",
			page:   `<p>Shayar: <i>Mir Anees</i></p>`,
			label:  "Shayar:",
			want:   "Mir Anees",
			wantOK: true,
		},
		{
			name:  "absent label",
			page:  `<p>Reciter: Someone</p>`,
			label: "Nohakhan:",
		},
		{
			name:  "empty value",
			page:  `<p>Nohakhan:   </p>`,
			label: "Nohakhan:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractLabel(parseTree(t, tt.page), tt.label)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLabelPrefersMostSpecificElement(t *testing.T) {
	t.Parallel()

	page := `<div id="wrap">Intro text Nohakhan: wrong<table><tr><td>Nohakhan: Right Person</td></tr></table></div>`
	got, ok := ExtractLabel(parseTree(t, page), "Nohakhan:")
	require.True(t, ok)
	require.Equal(t, "Right Person", got)
}

func TestExtractLabelNilTree(t *testing.T) {
	t.Parallel()

	got, ok := ExtractLabel(nil, "Shayar:")
	require.False(t, ok)
	require.Empty(t, got)
}
