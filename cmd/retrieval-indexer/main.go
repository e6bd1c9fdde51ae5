// Command retrieval-indexer is the CLI front door for the indexing
// pipeline: "retrieval-indexer index -config=config.hcl" walks every
// configured tenant's drive root and rebuilds its TF-IDF and vector
// indexes on disk.
package main

import (
	"os"

	"github.com/jrepp/retrieval-core/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
