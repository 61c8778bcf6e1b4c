package pathstore

import (
	"context"
	"fmt"

	"github.com/dgallion1/specchunk/internal/doctree"
)

// DocPrefix is the key under which a document's chunks are exported.
func DocPrefix(docID string) string {
	return "specs/" + docID
}

// ChunkKey returns the key of chunk seq within a document.
func ChunkKey(docID string, seq int) string {
	return fmt.Sprintf("%s/chunks/%06d", DocPrefix(docID), seq)
}

// ExportChunks replaces the exported copy of a document: existing nodes under
// the document prefix are deleted, each chunk is written as a node, a meta
// node records the document, and every chunk is linked to the first chunk
// of its parent section. It stops at the first failed write.
func (c *Client) ExportChunks(ctx context.Context, docID, title string, chunks []doctree.Chunk) error {
	prefix := DocPrefix(docID)
	if err := c.DeleteNode(ctx, prefix, true); err != nil {
		return err
	}

	first := make(map[string]int, len(chunks))
	for _, ch := range chunks {
		if _, ok := first[ch.SectionNumber]; !ok {
			first[ch.SectionNumber] = ch.Seq
		}
		err := c.PutNode(ctx, ChunkKey(docID, ch.Seq), NodeRequest{
			Value: map[string]any{
				"section_number": ch.SectionNumber,
				"section_title":  ch.SectionTitle,
				"section_path":   ch.SectionPath,
				"subtitles":      ch.Subtitles,
				"pages":          ch.Pages,
				"chunk_index":    ch.ChunkIndex,
				"text":           ch.Text,
			},
			MemoryType: "semantic",
			Salience:   0.5,
			Source:     "specchunk:" + docID,
		})
		if err != nil {
			return err
		}
	}

	for _, ch := range chunks {
		p, ok := first[ch.ParentSection]
		if ch.ParentSection == "" || !ok {
			continue
		}
		err := c.PutLink(ctx, LinkRequest{
			From:    ChunkKey(docID, ch.Seq),
			To:      ChunkKey(docID, p),
			Weight:  0.5,
			Summary: "child of " + ch.ParentSection,
		})
		if err != nil {
			return err
		}
	}

	return c.PutNode(ctx, prefix+"/meta", NodeRequest{
		Value: map[string]any{
			"title":        title,
			"total_chunks": len(chunks),
		},
		MemoryType: "metacognitive",
		Salience:   0.1,
		Source:     "specchunk:" + docID,
	})
}

// DeleteDocument removes a document's exported nodes.
func (c *Client) DeleteDocument(ctx context.Context, docID string) error {
	return c.DeleteNode(ctx, DocPrefix(docID), true)
}
