// The sniffer command captures live game traffic and decodes the
// client->server packets it sees, which is the main tool for comparing
// the relay's view of the protocol against a real client.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"github.com/opencw/brazier/internal/core/debug"
	"github.com/opencw/brazier/internal/protocol"
)

var (
	device = flag.String("d", "en0", "Device on which to listen for packets")
	port   = flag.Int("p", 12345, "Game server port to filter on")
)

func main() {
	flag.Parse()

	handle, err := pcap.OpenLive(*device, math.MaxInt32, false, pcap.BlockForever)
	if err != nil {
		exit("error opening handle: %v", err)
	}
	if err := handle.SetBPFFilter(fmt.Sprintf("tcp and port %d", *port)); err != nil {
		exit("error setting filter: %v", err)
	}

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range packetSource.Packets() {
		transport := packet.TransportLayer()
		if transport == nil || len(transport.LayerPayload()) == 0 {
			continue
		}
		flow := transport.TransportFlow()
		fmt.Printf("source: %v, destination: %v (%d bytes)\n",
			flow.Src(), flow.Dst(), len(transport.LayerPayload()))

		decodePayload(transport.LayerPayload())
	}
}

// decodePayload decodes as many client packets as the captured payload
// holds. Segments that split a packet across captures will fail to
// decode; the raw bytes are enough to work with in that case.
func decodePayload(payload []byte) {
	r := bytes.NewReader(payload)
	for r.Len() > 0 {
		packet, err := protocol.ReadPacketFromClient(r)
		if err != nil {
			fmt.Printf("  undecodable (%v), %d raw bytes remain\n", err, r.Len())
			return
		}
		fmt.Println(debug.DumpPacket(packet))
	}
}

func exit(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}
