package cas

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// HashObject computes the id of an object from its type label and payload.
// The digest covers the same "<type> <size>\x00" header layout git uses,
// so blob ids are interchangeable with git blob ids. Tree ids are not,
// because trees use the line-based encoding rather than git's binary one.
func HashObject(objectType string, data []byte) ObjectID {
	h := sha1.New()

	fmt.Fprintf(h, "%s %d\x00", objectType, len(data))
	h.Write(data)

	return ObjectID(hex.EncodeToString(h.Sum(nil)))
}
