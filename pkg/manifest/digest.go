package manifest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sync"
)

const digestBufferSize = 64 * 1024

var digestBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, digestBufferSize)
		return &buf
	},
}

// FileDigest computes the SHA-256 content digest of a file using streaming
// reads, honoring context cancellation between chunks.
func FileDigest(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()

	bufPtr := digestBufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer digestBufferPool.Put(bufPtr)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := file.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
