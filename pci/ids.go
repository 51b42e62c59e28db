package pci

// IntelVendorID is the PCI vendor id for Intel Corporation.
const IntelVendorID = 0x8086

// networkControllerClass is the PCI base class code for network
// controllers (PCI Code and ID Assignment Specification, class 0x02).
const networkControllerClass = 0x02

// supportedDevices enumerates the Intel device ids of the 82598, 82599,
// X540 and X550 ixgbe families, including their SFP+/KX4/CX4/backplane and
// virtual-function variants. Probe fails ErrUnsupportedDevice for anything
// not in this table.
var supportedDevices = map[uint16]string{
	// 82598
	0x10b6: "82598",
	0x1507: "82598 SFP+ dual port",
	0x1508: "82598 CX4 dual port",
	0x10c7: "82598",
	0x10c8: "82598 dual port",
	0x10d8: "82598 dual port (bx)",
	0x150b: "82598 bx",
	0x10db: "82598 SFP+",

	// 82599
	0x10c6: "82599 CX4",
	0x10dd: "82599 backplane",
	0x10ec: "82599 CX4",
	0x10f1: "82599 T3 10GBASE-T",
	0x10f7: "82599 KX4",
	0x10f8: "82599 combined backplane",
	0x10f9: "82599 CX4",
	0x10fb: "82599 SFP+",
	0x10fc: "82599 CX4",
	0x151c: "82599 SFP",
	0x1529: "82599 KX4 mezzanine",
	0x152a: "82599 combined backplane",
	0x1557: "82599 SFP+ single port",
	0x1558: "82599 bypass",
	0x15a4: "82599 QSFP+",

	// 82599 virtual function
	0x10ed: "82599 VF",
	0x1515: "82599 VF",

	// X540
	0x1528: "X540",
	0x1560: "X540 backplane",
	0x1513: "X540 VF",
	0x1514: "X540 VF HV",

	// X550
	0x1563: "X550",
	0x15ac: "X550EM_x",
	0x15ad: "X550EM_x KX4",
	0x15ae: "X550EM_x KR",
	0x15b0: "X550 VF",
	0x15b9: "X550EM_x 1G-T",
	0x15c2: "X550EM_a",
	0x15c3: "X550EM_a backplane",
	0x15c4: "X550EM_a SFP+",
	0x15c6: "X550EM_a 10G-T",
	0x15c7: "X550EM_a 1G-T",
	0x15c8: "X550EM_a 10G-T",
	0x15ce: "X550EM_a SFP",
	0x15d1: "X550EM_a VF",
	0x15e4: "X550EM_a 10G-T",
	0x15e5: "X550EM_a 1G-T",
}
