package core

import (
	"testing"

	"csd-runlab/modules/platform/stream"

	"github.com/stretchr/testify/assert"
)

func TestTreeEventsCoverTeamMutations(t *testing.T) {
	// Every event type that can advance the teams-store epoch must also
	// trigger the staged-session invalidation check, or a user's reorder
	// session dies silently without a prompt.
	mutators := []string{
		stream.TypeInit,
		stream.TypeTeamCreated,
		stream.TypeTeamDeleted,
		stream.TypeTeamStructureUpdated,
		stream.TypeFolderCreated,
		stream.TypeFolderUpdated,
		stream.TypeFolderDeleted,
	}
	for _, typ := range mutators {
		assert.True(t, treeEvents[typ], "missing %s", typ)
	}

	assert.False(t, treeEvents[stream.TypeMetricsUpdate])
	assert.False(t, treeEvents[stream.TypeLog])
}
