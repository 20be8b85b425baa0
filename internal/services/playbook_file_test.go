package services

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/nexus-talent/internal/models"
)

const samplePlaybooks = `playbooks:
  - id: pb_outreach
    title: Warm outreach
    phaseId: phase1
    prompt: |
      Draft a warm outreach note for a senior engineer.
      Keep it under 80 words.
  - title: Weekly pipeline review
    prompt: Summarize what moved in every pipeline this week.
`

func TestDecodePlaybooks(t *testing.T) {
	playbooks, err := DecodePlaybooks(strings.NewReader(samplePlaybooks))
	require.NoError(t, err)
	require.Len(t, playbooks, 2)

	assert.Equal(t, "pb_outreach", playbooks[0].ID)
	assert.Equal(t, "phase1", playbooks[0].PhaseID)
	assert.True(t, strings.HasPrefix(playbooks[0].Prompt, "Draft a warm outreach note"))
	assert.Empty(t, playbooks[1].PhaseID)

	_, err = DecodePlaybooks(strings.NewReader("playbooks:\n  - title: x\n    phaseId: phase9\n    prompt: y\n"))
	require.ErrorIs(t, err, ErrInvalidPhase)

	empty, err := DecodePlaybooks(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEncodePlaybooksRoundTrip(t *testing.T) {
	in := []models.Playbook{{ID: "pb_1", Title: "Offer framing", PhaseID: "phase4", Prompt: "Frame the offer\nwith equity."}}

	var buf bytes.Buffer
	require.NoError(t, EncodePlaybooks(&buf, in))
	assert.Contains(t, buf.String(), "phaseId: phase4")

	out, err := DecodePlaybooks(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadPlaybooksMissingFile(t *testing.T) {
	playbooks, err := LoadPlaybooks(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, playbooks)

	path := filepath.Join(t.TempDir(), "playbooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlaybooks), 0o644))
	playbooks, err = LoadPlaybooks(path)
	require.NoError(t, err)
	assert.Len(t, playbooks, 2)
}
