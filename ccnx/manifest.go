package ccnx

// ManifestSections is the parsed form of a manifest's two sections:
// pointers to child manifests and pointers to data objects, each with a
// starting chunk number and a concatenated list of 32-byte hashes.
type ManifestSections struct {
	HasManifestLinks   bool
	ManifestStartChunk uint64
	ManifestHashList   [][32]byte

	HasDataLinks   bool
	DataStartChunk uint64
	DataHashList   [][32]byte
}

// ManifestNode is the builder-side representation of one manifest in the
// tree: a name, its link-count capacities, and the manifest/data links
// filled in during tree construction. Invariants: len(ManifestLinks) <=
// manifestFanoutCap; len(DataLinks) <= dataFanoutCap.
type ManifestNode struct {
	name             Name
	manifestFanoutCap int
	dataFanoutCap     int
	manifestLinks     []*ManifestNode
	dataLinks         []*Message
}

// NewManifestNode creates a manifest node with the given link-count
// capacities.
func NewManifestNode(name Name, manifestFanoutCap, dataFanoutCap int) *ManifestNode {
	return &ManifestNode{name: name, manifestFanoutCap: manifestFanoutCap, dataFanoutCap: dataFanoutCap}
}

// Name returns the node's current name (its chunk number may change until
// the BFS rename pass runs).
func (m *ManifestNode) Name() Name { return m.name }

// SetChunkNumber rewrites the node's chunk-number segment; used by the BFS
// renaming pass to assign contiguous numbering.
func (m *ManifestNode) SetChunkNumber(chunkNumber uint64) { m.name.SetChunkNumber(chunkNumber) }

// AddDataLink attaches a data content object to this manifest.
func (m *ManifestNode) AddDataLink(co *Message) { m.dataLinks = append(m.dataLinks, co) }

// AddManifestLink attaches a child manifest to this manifest.
func (m *ManifestNode) AddManifestLink(child *ManifestNode) { m.manifestLinks = append(m.manifestLinks, child) }

// RemainingManifestFanout is how many more manifest-link slots are open.
func (m *ManifestNode) RemainingManifestFanout() int { return m.manifestFanoutCap - len(m.manifestLinks) }

// ManifestLinksLength is the number of manifest links already attached.
func (m *ManifestNode) ManifestLinksLength() int { return len(m.manifestLinks) }

// DataLinksLength is the number of data links already attached.
func (m *ManifestNode) DataLinksLength() int { return len(m.dataLinks) }

// ManifestLinks returns the attached child manifests in insertion order.
func (m *ManifestNode) ManifestLinks() []*ManifestNode { return m.manifestLinks }

// DataLinks returns the attached data objects in insertion order.
func (m *ManifestNode) DataLinks() []*Message { return m.dataLinks }

// GetContentObject builds the unsigned content object for this manifest.
// Manifest links are resolved recursively (a child's wire bytes and hash
// are computed before the parent's), so names must already be final (the
// BFS rename pass must have already run) before this is called on the
// root.
func (m *ManifestNode) GetContentObject() (*Message, error) {
	var sectionTLVs []TLV
	manifestBodyLen := 0

	if len(m.manifestLinks) > 0 {
		startChunk, _ := m.manifestLinks[0].name.ChunkNumber()
		hashes := make([]byte, 0, HashSize*len(m.manifestLinks))
		for _, child := range m.manifestLinks {
			childCO, err := child.GetContentObject()
			if err != nil {
				return nil, err
			}
			h, err := childCO.Hash()
			if err != nil {
				return nil, err
			}
			hashes = append(hashes, h[:]...)
		}
		startTLV := Terminal(TStartChunkNumber, NumberToBytes(startChunk))
		hashTLV := Terminal(THashList, hashes)
		sectionLen := 4 + len(startTLV.Value) + 4 + len(hashTLV.Value)
		sectionTLVs = append(sectionTLVs, Container(TManifestLinks, sectionLen), startTLV, hashTLV)
		manifestBodyLen += 4 + sectionLen
	}

	if len(m.dataLinks) > 0 {
		startChunk, _ := m.dataLinks[0].Name.ChunkNumber()
		hashes := make([]byte, 0, HashSize*len(m.dataLinks))
		for _, d := range m.dataLinks {
			h, err := d.Hash()
			if err != nil {
				return nil, err
			}
			hashes = append(hashes, h[:]...)
		}
		startTLV := Terminal(TStartChunkNumber, NumberToBytes(startChunk))
		hashTLV := Terminal(THashList, hashes)
		sectionLen := 4 + len(startTLV.Value) + 4 + len(hashTLV.Value)
		sectionTLVs = append(sectionTLVs, Container(TDataLinks, sectionLen), startTLV, hashTLV)
		manifestBodyLen += 4 + sectionLen
	}

	manifestTLV := Container(TManifest, manifestBodyLen)
	coLength := m.name.Length() + 4 + manifestBodyLen
	coTLV := Container(TObject, coLength)

	body := append([]TLV{coTLV}, m.name.TLVList()...)
	body = append(body, manifestTLV)
	body = append(body, sectionTLVs...)

	co := &Message{BodyTLVs: body, Name: m.name}
	if err := co.GenerateWireFormat(); err != nil {
		return nil, err
	}
	return co, nil
}

// Sign builds this node's content object and signs it. Only the root
// manifest is signed; internal manifests are referenced purely by hash.
func (m *ManifestNode) Sign(signer Signer) (*Message, error) {
	co, err := m.GetContentObject()
	if err != nil {
		return nil, err
	}
	if err := co.Sign(signer); err != nil {
		return nil, err
	}
	return co, nil
}
