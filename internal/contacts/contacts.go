// Package contacts reads the on-disk contact/key store that backs the
// social table. Populating and maintaining the store is the concern
// of a separate key-management process; this package only defines
// the minimal on-disk convention needed to give the social table a
// concrete data source, one identity.yaml per keyset directory under
// a root such as ~/.allnet/contacts/<keyset-id>/.
package contacts

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Identity is one keyset entry: a public key, the number of leading
// bits of its derived address that are meaningful, and the social
// distance assigned to it.
type Identity struct {
	KeysetID string `yaml:"-"`
	PubKey   []byte `yaml:"pubkey"`
	Bits     byte   `yaml:"bits"`
	Tier     int    `yaml:"tier"`
	Algo     string `yaml:"algo"`
}

const identityFile = "identity.yaml"

// Load walks the immediate subdirectories of dir, one per keyset, and
// reads each one's identity.yaml. Subdirectories without a
// well-formed identity.yaml are silently skipped — the contact store
// is maintained by another process and may contain keysets mid-write
// or otherwise not yet populated.
func Load(dir string) ([]Identity, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []Identity
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}

		path := filepath.Join(dir, e.Name(), identityFile)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var id Identity
		if err := yaml.Unmarshal(data, &id); err != nil {
			continue
		}
		id.KeysetID = e.Name()
		out = append(out, id)
	}

	return out, nil
}
