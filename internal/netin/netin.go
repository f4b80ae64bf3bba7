// Package netin ingests the UDP wire protocol: IMAGE_DATA fragments are
// handed to a line double-buffer, IMU_DATA samples are handed to the
// auto-volume controller. One goroutine owns the socket; recv timeouts
// keep it responsive to shutdown without blocking forever.
package netin

import (
	"encoding/binary"
	"math"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/Ondulab/sp3ctra/internal/ldb"
)

// Packet kind tags, the leading type byte of every datagram. The exact
// value of imageDataHeader is a project constant that must be preserved
// bit-for-bit across implementations (spec §9 open question); 0x01 is
// this implementation's fixed choice.
const (
	imageDataHeader byte = 0x01
	imuDataHeader   byte = 0x02
)

const recvTimeout = 100 * time.Millisecond

// imuSmoothingAlpha is the first-order IIR coefficient applied to raw
// IMU X samples before they are published, per spec §4.7's
// imu_x_filtered definition.
const imuSmoothingAlpha = 0.2

// IMUSink receives the IIR-filtered X-axis accelerometer sample.
type IMUSink interface {
	PublishIMU(xFiltered float32)
}

// Stats holds counters updated only by the receive goroutine but safe to
// read concurrently for telemetry.
type Stats struct {
	MalformedPackets    atomic.Uint64
	InvalidFragmentSize atomic.Uint64
}

// Receiver owns the UDP socket and dispatches decoded packets.
type Receiver struct {
	conn    net.PacketConn
	buffer  *ldb.DoubleBuffer
	imu     IMUSink
	running atomic.Bool

	Stats Stats

	readBuf []byte

	imuFiltered float32
	haveIMU     bool
}

// New binds a UDP socket at addr and wires it to buffer (for IMAGE_DATA)
// and imu (for IMU_DATA). If addr's IP is in the multicast range
// (224.0.0.0/4), the socket joins the group on multicastIface.
func New(addr string, buffer *ldb.DoubleBuffer, imu IMUSink, multicastIface *net.Interface) (*Receiver, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, err
	}

	if udpAddr.IP.IsMulticast() {
		pconn := ipv4.NewPacketConn(conn)
		if err := pconn.JoinGroup(multicastIface, &net.UDPAddr{IP: udpAddr.IP}); err != nil {
			conn.Close()
			return nil, err
		}
		if err := pconn.SetMulticastLoopback(true); err != nil {
			conn.Close()
			return nil, err
		}
	}

	r := &Receiver{
		conn:    conn,
		buffer:  buffer,
		imu:     imu,
		readBuf: make([]byte, 65536),
	}
	r.running.Store(true)
	return r, nil
}

// Run loops reading datagrams until Close is called. It checks its
// running flag at least every recvTimeout, satisfying the shutdown
// responsiveness rule of spec §5/§6.
func (r *Receiver) Run() {
	for r.running.Load() {
		r.conn.SetReadDeadline(time.Now().Add(recvTimeout))
		n, _, err := r.conn.ReadFrom(r.readBuf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if !r.running.Load() {
				return
			}
			continue
		}
		r.handlePacket(r.readBuf[:n])
	}
}

// Close shuts the socket down with immediate release so Run's blocking
// read unblocks promptly; SO_LINGER=0 equivalent behavior on UDP sockets
// is simply an immediate Close (no connection to linger).
func (r *Receiver) Close() error {
	r.running.Store(false)
	return r.conn.Close()
}

func (r *Receiver) handlePacket(data []byte) {
	if len(data) < 1 {
		r.Stats.MalformedPackets.Add(1)
		return
	}
	switch data[0] {
	case imageDataHeader:
		r.handleImageData(data[1:])
	case imuDataHeader:
		r.handleIMUData(data[1:])
	default:
		r.Stats.MalformedPackets.Add(1)
	}
}

// handleImageData decodes: line_id(u32) fragment_id(u32)
// total_fragments(u32) fragment_size(u32) R[fragment_size] G[...] B[...].
func (r *Receiver) handleImageData(body []byte) {
	const headerLen = 16
	if len(body) < headerLen {
		r.Stats.MalformedPackets.Add(1)
		return
	}
	lineID := binary.BigEndian.Uint32(body[0:4])
	fragmentID := binary.BigEndian.Uint32(body[4:8])
	totalFragments := binary.BigEndian.Uint32(body[8:12])
	fragmentSize := binary.BigEndian.Uint32(body[12:16])

	need := int(fragmentSize) * 3
	payload := body[headerLen:]
	if len(payload) < need {
		r.Stats.InvalidFragmentSize.Add(1)
		return
	}

	rChan := payload[0:fragmentSize]
	gChan := payload[fragmentSize : 2*fragmentSize]
	bChan := payload[2*fragmentSize : 3*fragmentSize]

	_ = r.buffer.WriteFragment(lineID, fragmentID, totalFragments, fragmentSize, rChan, gChan, bChan)
}

// handleIMUData decodes three float32 accelerometer axes; only X is
// used, per spec §6. The raw sample is run through a first-order IIR
// smoothing filter before publishing, since the sink expects
// imu_x_filtered rather than the raw axis value (spec §4.7).
func (r *Receiver) handleIMUData(body []byte) {
	if len(body) < 12 {
		r.Stats.MalformedPackets.Add(1)
		return
	}
	xBits := binary.BigEndian.Uint32(body[0:4])
	x := math.Float32frombits(xBits)

	if !r.haveIMU {
		r.imuFiltered = x
		r.haveIMU = true
	} else {
		r.imuFiltered += imuSmoothingAlpha * (x - r.imuFiltered)
	}
	r.imu.PublishIMU(r.imuFiltered)
}
