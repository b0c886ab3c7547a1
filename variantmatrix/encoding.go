package variantmatrix

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/carbocation/varmatrix/capsule"
)

// The binary form is a fixed header followed by the two raw buffers:
//
//	magic     [4]byte  "VMAT"
//	version   uint8
//	maxAllele int8
//	nsites    uint64 little endian
//	nsam      uint64 little endian
//	genotypes nsites*nsam int8, row-major
//	positions nsites float64, little endian IEEE 754
var binaryMagic = [4]byte{'V', 'M', 'A', 'T'}

const (
	binaryVersion    = 1
	binaryHeaderSize = 4 + 1 + 1 + 8 + 8
)

// MarshalBinary encodes the matrix as its genotype and position buffers.
func (m *VariantMatrix) MarshalBinary() ([]byte, error) {
	g := m.GenotypeBytes()
	buf := bytes.NewBuffer(make([]byte, 0, binaryHeaderSize+len(g)+8*m.nsites))

	buf.Write(binaryMagic[:])
	buf.WriteByte(binaryVersion)
	buf.WriteByte(byte(m.maxAllele))

	var word [8]byte
	binary.LittleEndian.PutUint64(word[:], uint64(m.nsites))
	buf.Write(word[:])
	binary.LittleEndian.PutUint64(word[:], uint64(m.nsam))
	buf.Write(word[:])

	buf.Write(g)
	for _, p := range m.pos.Positions() {
		binary.LittleEndian.PutUint64(word[:], math.Float64bits(p))
		buf.Write(word[:])
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the receiver with the decoded matrix. The decoded
// matrix owns fresh copies of the data and is validated like New would.
func (m *VariantMatrix) UnmarshalBinary(data []byte) error {
	if len(data) < binaryHeaderSize {
		return fmt.Errorf("%w: %d bytes is too short for a matrix header", ErrInvalidArgument, len(data))
	}
	if !bytes.Equal(data[:4], binaryMagic[:]) {
		return fmt.Errorf("%w: not an encoded variant matrix", ErrInvalidArgument)
	}
	if data[4] != binaryVersion {
		return fmt.Errorf("%w: unsupported encoding version %d", ErrInvalidArgument, data[4])
	}

	maxAllele := int8(data[5])
	nsites := binary.LittleEndian.Uint64(data[6:14])
	nsam := binary.LittleEndian.Uint64(data[14:22])
	body := data[binaryHeaderSize:]

	if nsam > math.MaxInt32 {
		return fmt.Errorf("%w: header declares %d samples", ErrInvalidArgument, nsam)
	}
	if nsites > uint64(len(body)) || (nsites > 0 && nsam > uint64(len(body))/nsites) {
		return fmt.Errorf("%w: header declares %d sites × %d samples but only %d bytes follow", ErrInvalidArgument, nsites, nsam, len(body))
	}
	ngeno := int(nsites * nsam)
	if want := ngeno + 8*int(nsites); len(body) != want {
		return fmt.Errorf("%w: expected %d bytes of data, found %d", ErrInvalidArgument, want, len(body))
	}

	g := make([]int8, ngeno)
	for i, b := range body[:ngeno] {
		g[i] = int8(b)
	}
	p := make([]float64, nsites)
	for i := range p {
		off := ngeno + 8*i
		p[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[off : off+8]))
	}

	if nsites == 0 {
		decoded, err := NewEmpty(int(nsam), WithMaxAllele(maxAllele))
		if err != nil {
			return err
		}
		m.replace(decoded)
		return nil
	}

	decoded, err := NewFromCapsules(capsule.NewVectorGenotypeCapsule(g), capsule.NewVectorPositionCapsule(p), WithMaxAllele(maxAllele))
	if err != nil {
		return err
	}
	m.replace(decoded)

	return nil
}

// replace swaps in another matrix's state. The generation keeps counting up
// so views of the old contents stay invalid.
func (m *VariantMatrix) replace(o *VariantMatrix) {
	gen := m.generation + 1
	*m = *o
	m.generation = gen
}
