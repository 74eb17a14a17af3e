package qoi

import (
	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/pipeline"
)

func errNoSpace(n *pipeline.Node) error {
	return errno.Wrap(errno.ENOSPC, n.Name+": output ring exhausted")
}
