package artifact

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrUnknownNetwork is returned when naming an item of an unrecognized
// network.
var ErrUnknownNetwork = errors.New("artifact: unknown network")

// Well-known network ids.
const (
	Sapphire        uint64 = 0x5afe
	SapphireTestnet uint64 = 0x5aff
	Hyperspace      uint64 = 3141
	Filecoin        uint64 = 314
	Ganache         uint64 = 1337
	Hardhat         uint64 = 31337
)

var networkNames = map[uint64]string{
	Sapphire:        "Sapphire",
	SapphireTestnet: "Sapphire Testnet",
	Hyperspace:      "Hyperspace",
	Filecoin:        "Filecoin",
	Ganache:         "Ganache",
	Hardhat:         "Hardhat",
}

// NetworkName returns the display name of a network.
func NetworkName(networkID uint64) (string, error) {
	name, ok := networkNames[networkID]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownNetwork, networkID)
	}
	return name, nil
}

var printer = message.NewPrinter(language.English)

// Name returns the display name of id, such as "Sapphire TROUT #1,024".
func (id OrganismID) Name() (string, error) {
	net, err := NetworkName(id.NetworkID)
	if err != nil {
		return "", err
	}
	return printer.Sprintf("%s TROUT #%d", net, id.ItemID), nil
}

// Description returns the one-sentence story of an item: who its parents
// are, or how it came to exist without them.
func Description(self OrganismID, left, right *OrganismID, attrs Attributes) (string, error) {
	name, err := self.Name()
	if err != nil {
		return "", err
	}
	switch {
	case left != nil && right != nil:
		l, err := left.Name()
		if err != nil {
			return "", err
		}
		r, err := right.Name()
		if err != nil {
			return "", err
		}
		return printer.Sprintf("%s was born to %s and %s.", name, l, r), nil
	case attrs.Genesis:
		return name + " has existed since before the dawn of time.", nil
	}
	return name + " was spontaneously generated.", nil
}
