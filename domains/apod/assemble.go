package apod

import (
	"fmt"

	pkgError "github.com/AzielCF/az-apod/pkg/error"
)

// Assemble concatenates artifact bytes and the description block. The
// artifact must be exactly the size its mode prescribes; nothing is truncated
// or padded to make it fit.
func Assemble(name string, image []byte, mode ModeSpec, descr DescriptionRecord) (Payload, error) {
	if len(image) != mode.Size() {
		return Payload{}, pkgError.IntegrityError(fmt.Sprintf("artifact %s is %d bytes, mode %s needs %d", name, len(image), mode.Token, mode.Size()))
	}
	if descr.IsZero() {
		return Payload{}, pkgError.UpstreamUnavailableError("no description available")
	}

	body := make([]byte, 0, len(image)+descr.Len())
	body = append(body, image...)
	body = append(body, descr.Bytes...)

	return Payload{
		Filename: name,
		Body:     body,
	}, nil
}
