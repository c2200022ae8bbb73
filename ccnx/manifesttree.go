package ccnx

import (
	"fmt"
	"math"
	"time"
)

// internalManifestLinkFanoutCap is the hard-coded cap on how many manifest
// links an internal manifest may carry, regardless of how much byte budget
// remains. Carried over unresolved: whether this should instead be derived
// from the chunk budget is an open question the source leaves unanswered.
const internalManifestLinkFanoutCap = 4

// chunkNumberWidth is the assumed upper bound, in bytes, on an encoded
// chunk-number value (not counting its 4-byte TLV header) used for sizing
// estimates. This may over-count by a byte or two for small chunk counts.
const chunkNumberWidth = 3

const hashLinkSize = HashSize + 4 // 32-byte hash plus its 4-byte TLV header

// ManifestTree builds a signed k-ary manifest tree over a byte sequence,
// sized to a per-packet chunk budget.
type ManifestTree struct {
	name      Name
	data      []byte
	chunkSize int
	signer    Signer

	rootManifestFanout, rootDataFanout         int
	internalManifestFanout, internalDataFanout int

	manifestNodes []*ManifestNode
	dataObjects   []*Message
}

// NewManifestTree prepares a tree builder for data named uri, chunked to
// chunkSize-byte packets and signed (root only) by signer.
func NewManifestTree(uri string, data []byte, chunkSize int, signer Signer) (*ManifestTree, error) {
	name, err := NameFromURI(uri)
	if err != nil {
		return nil, err
	}
	return &ManifestTree{name: name, data: data, chunkSize: chunkSize, signer: signer}, nil
}

// NewManifestTreeForName is NewManifestTree for a caller that already holds
// a constructed Name (e.g. a publisher's prefix joined with a relative
// path), avoiding a round trip through NameFromURI's plain-segment URI
// grammar, which cannot re-derive a label segment like T_SERIAL.
func NewManifestTreeForName(name Name, data []byte, chunkSize int, signer Signer) *ManifestTree {
	return &ManifestTree{name: name, data: data, chunkSize: chunkSize, signer: signer}
}

func divRoundup(a, b int) int {
	n := a / b
	if a%b > 0 {
		n++
	}
	return n
}

// chunkOverhead is the fixed per-data-object byte overhead: 8-byte fixed
// header, 4-byte T_OBJECT header, the encoded name, a 12-byte T_EXPIRY TLV
// (4-byte header + 8-byte millisecond timestamp), and a 4-byte T_PAYLOAD
// header.
func (t *ManifestTree) chunkOverhead() int {
	const fhLen = 8
	const objectTLVHeader = 4
	const expiryLen = 12
	const payloadHeader = 4
	return fhLen + objectTLVHeader + t.name.Length() + expiryLen + payloadHeader
}

func (t *ManifestTree) dataSizePerChunk() int {
	return t.chunkSize - t.chunkOverhead() - chunkNumberWidth
}

// internalManifestSize computes the manifest-link and data-link capacities
// that fit within availableBytes once the manifest's own overhead is
// subtracted.
func (t *ManifestTree) internalManifestSize(availableBytes int) (manifestFanout, dataFanout int, err error) {
	availableBytes -= t.chunkOverhead()

	// T_MANIFEST_LINKS header + T_START_CHUNK_NUMBER (worst case 3-byte
	// chunk number plus its own 4-byte TLV header).
	availableBytes -= 4
	availableBytes -= 7

	if availableBytes < hashLinkSize {
		return 0, 0, fmt.Errorf("%w: available_bytes %d too small for overhead", ErrChunkTooLarge, availableBytes)
	}

	if availableBytes > hashLinkSize {
		availableBytes -= 4
		maxFanout := availableBytes / HashSize
		manifestFanout = maxFanout
		if manifestFanout > internalManifestLinkFanoutCap {
			manifestFanout = internalManifestLinkFanoutCap
		}
		availableBytes -= HashSize * manifestFanout
	}

	availableBytes -= 4
	availableBytes -= 7

	if availableBytes > hashLinkSize {
		availableBytes -= 4
		dataFanout = availableBytes / HashSize
	}

	return manifestFanout, dataFanout, nil
}

// rootManifestSize computes the root manifest's fanout, after reserving
// space for the validation-algorithm trailer (KeyId, DER public key,
// signature).
func (t *ManifestTree) rootManifestSize() (manifestFanout, dataFanout int, err error) {
	overhead := 8 + 36 + 4

	der, err := t.signer.PublicKeyDER()
	if err != nil {
		return 0, 0, err
	}
	sig, err := t.signer.Sign([]byte("a fake hash value"))
	if err != nil {
		return 0, 0, err
	}
	overhead += len(der) + len(sig)

	available := t.chunkSize - overhead
	return t.internalManifestSize(available)
}

func (t *ManifestTree) calculateManifestStructure() error {
	rm, rd, err := t.rootManifestSize()
	if err != nil {
		return err
	}
	t.rootManifestFanout, t.rootDataFanout = rm, rd

	im, id, err := t.internalManifestSize(t.chunkSize)
	if err != nil {
		return err
	}
	t.internalManifestFanout, t.internalDataFanout = im, id
	return nil
}

func (t *ManifestTree) calculateDataChunks() (int, error) {
	perChunk := t.dataSizePerChunk()
	chunkCount := divRoundup(len(t.data), perChunk)
	if chunkCount == 0 {
		// A zero-byte file still needs one (empty) data chunk, so the tree
		// always has a root manifest to serve as CHUNK=0.
		chunkCount = 1
	}
	if chunkCount >= (1 << (chunkNumberWidth * 8)) {
		return 0, fmt.Errorf("%w: need more than 16M chunks", ErrTooManyChunks)
	}
	return chunkCount, nil
}

// calculateManifestCount returns how many manifests are needed to hold
// links to every data chunk, given the root and internal data fanouts.
func (t *ManifestTree) calculateManifestCount() (int, error) {
	chunkCount, err := t.calculateDataChunks()
	if err != nil {
		return 0, err
	}
	if err := t.calculateManifestStructure(); err != nil {
		return 0, err
	}

	manifestCount := 0
	for chunkCount > 0 {
		dataFanout := t.internalDataFanout
		if manifestCount == 0 {
			dataFanout = t.rootDataFanout
		}
		manifestCount++
		chunkCount -= dataFanout
	}
	return manifestCount, nil
}

func (t *ManifestTree) generateDataChunk(offset, payloadSize int, chunkNumber uint64, expiry uint64) *Message {
	name := FromName(t.name, &chunkNumber)
	payloadTLV := Terminal(TPayload, t.data[offset:offset+payloadSize])
	return NewContentObject(name, &expiry, payloadTLV)
}

func (t *ManifestTree) generateData(startChunkNumber uint64) []*Message {
	perChunk := t.dataSizePerChunk()
	offset := 0
	chunkNumber := startChunkNumber
	var chunks []*Message

	expiry := uint64(time.Now().Add(24 * time.Hour).UnixMilli())

	if len(t.data) == 0 {
		return []*Message{t.generateDataChunk(0, 0, chunkNumber, expiry)}
	}

	for offset < len(t.data) {
		size := perChunk
		if offset+size > len(t.data) {
			size = len(t.data) - offset
		}
		chunk := t.generateDataChunk(offset, size, chunkNumber, expiry)
		chunks = append(chunks, chunk)
		chunkNumber++
		offset += perChunk
	}
	return chunks
}

// generateManifests fills manifest nodes with data links in traversal
// order, one manifest node at a time until its data-fanout capacity is
// exhausted, then moves on to the next.
func (t *ManifestTree) generateManifests(dataObjects []*Message) []*ManifestNode {
	var manifest *ManifestNode
	dataIndex := 0
	manifestChunkNumber := uint64(0)
	remainingDataLinks := 0
	var manifestObjects []*ManifestNode

	for dataIndex < len(dataObjects) {
		if manifest == nil {
			manifestFanout := t.internalManifestFanout
			if manifestChunkNumber == 0 {
				manifestFanout = t.rootManifestFanout
				remainingDataLinks = t.rootDataFanout
			} else {
				remainingDataLinks = t.internalDataFanout
			}

			manifestName := FromName(t.name, &manifestChunkNumber)
			manifestChunkNumber++
			manifest = NewManifestNode(manifestName, manifestFanout, remainingDataLinks)
			manifestObjects = append(manifestObjects, manifest)
		}

		if remainingDataLinks > 0 {
			manifest.AddDataLink(dataObjects[dataIndex])
			dataIndex++
			remainingDataLinks--
		}

		if remainingDataLinks == 0 {
			manifest = nil
		}
	}

	return manifestObjects
}

// recursivePreOrder walks manifestObjects in the order they should be
// linked: depth-first pre-order, attaching the next manifest as a child and
// descending into it before attaching the following one, while the parent
// has manifest-fanout slots left and remainingHeight allows. Returns the
// index of the next unconsumed manifest.
func recursivePreOrder(manifestObjects []*ManifestNode, startIndex, remainingHeight int) int {
	manifest := manifestObjects[startIndex]
	startIndex++
	if remainingHeight > 0 {
		for manifest.RemainingManifestFanout() > 0 && startIndex < len(manifestObjects) {
			child := manifestObjects[startIndex]
			manifest.AddManifestLink(child)
			startIndex = recursivePreOrder(manifestObjects, startIndex, remainingHeight-1)
		}
	}
	return startIndex
}

// linkManifests organizes manifestObjects (in their generation order, which
// is also their intended traversal order) into a tree rooted at index 0.
func (t *ManifestTree) linkManifests(manifestObjects []*ManifestNode) {
	n := len(manifestObjects) - 1
	if n <= 0 {
		return
	}

	nodesPerBranch := divRoundup(n, t.rootManifestFanout)
	branchHeight := 0
	if nodesPerBranch > 0 {
		k := float64(t.internalManifestFanout)
		branchHeight = int(math.Ceil(logBase(float64(k-1), k) + logBase(float64(nodesPerBranch), k) - 1))
	}

	// The root sits one level above its branches of height branchHeight.
	recursivePreOrder(manifestObjects, 0, branchHeight+1)
}

func logBase(x, base float64) float64 {
	return math.Log(x) / math.Log(base)
}

// bfsRename rewrites manifest chunk numbers by a breadth-first traversal
// starting at the root, so chunk numbers are contiguous across siblings.
func bfsRename(manifestObjects []*ManifestNode) {
	if len(manifestObjects) == 0 {
		return
	}
	chunkNumber := uint64(0)
	queue := []*ManifestNode{manifestObjects[0]}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		node.SetChunkNumber(chunkNumber)
		chunkNumber++
		queue = append(queue, node.ManifestLinks()...)
	}
}

// CreateTree builds the full tree and returns the signed root manifest.
func (t *ManifestTree) CreateTree() (*Message, error) {
	manifestCount, err := t.calculateManifestCount()
	if err != nil {
		return nil, err
	}

	dataObjects := t.generateData(uint64(manifestCount))

	manifestObjects := t.generateManifests(dataObjects)
	if len(manifestObjects) != manifestCount {
		return nil, fmt.Errorf("ccnx: manifest_count = %d but generated %d", manifestCount, len(manifestObjects))
	}

	t.linkManifests(manifestObjects)
	bfsRename(manifestObjects)

	t.manifestNodes = manifestObjects
	t.dataObjects = dataObjects

	return manifestObjects[0].Sign(t.signer)
}

// AllContentObjects returns every content object belonging to the tree built
// by the most recent CreateTree call: root (the signed root manifest
// CreateTree returned), every internal manifest (unsigned, referenced only
// by hash per §4.6's "sign only the root"), and every data chunk -- the
// full set a publisher needs to index so later chunk interests, which are
// hash-restricted rather than name-restricted past CHUNK=0, can be matched.
func (t *ManifestTree) AllContentObjects(root *Message) ([]*Message, error) {
	objs := make([]*Message, 0, len(t.manifestNodes)+len(t.dataObjects))
	objs = append(objs, root)
	for _, node := range t.manifestNodes[1:] {
		co, err := node.GetContentObject()
		if err != nil {
			return nil, err
		}
		objs = append(objs, co)
	}
	objs = append(objs, t.dataObjects...)
	return objs, nil
}
