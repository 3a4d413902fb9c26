package reconcile

// DefaultFusions lists the municipal mergers between the oldest population
// figures and the 2023 map the boundaries and RIVM figures are published on.
func DefaultFusions() []Fusion {
	return []Fusion{
		{From: "GM0370", FromName: "Beemster", To: "GM0439", ToName: "Purmerend"},
		{From: "GM0398", FromName: "Heerhugowaard", To: "GM1980", ToName: "Dijk en Waard"},
		{From: "GM0416", FromName: "Langedijk", To: "GM1980", ToName: "Dijk en Waard"},
		{From: "GM0457", FromName: "Weesp", To: "GM0363", ToName: "Amsterdam"},
		{From: "GM0501", FromName: "Brielle", To: "GM1992", ToName: "Voorne aan Zee"},
		{From: "GM0530", FromName: "Hellevoetsluis", To: "GM1992", ToName: "Voorne aan Zee"},
		{From: "GM0614", FromName: "Westvoorne", To: "GM1992", ToName: "Voorne aan Zee"},
		{From: "GM0756", FromName: "Boxmeer", To: "GM1982", ToName: "Land van Cuijk"},
		{From: "GM0786", FromName: "Grave", To: "GM1982", ToName: "Land van Cuijk"},
		{From: "GM0815", FromName: "Mill en Sint Hubert", To: "GM1982", ToName: "Land van Cuijk"},
		{From: "GM0856", FromName: "Uden", To: "GM1991", ToName: "Maashorst"},
		{From: "GM1684", FromName: "Cuijk", To: "GM1982", ToName: "Land van Cuijk"},
		{From: "GM1685", FromName: "Landerd", To: "GM1991", ToName: "Maashorst"},
		{From: "GM1702", FromName: "Sint Anthonis", To: "GM1982", ToName: "Land van Cuijk"},
		{From: "GM0003", FromName: "Appingedam", To: "GM1979", ToName: "Eemsdelta"},
		{From: "GM0010", FromName: "Delfzijl", To: "GM1979", ToName: "Eemsdelta"},
		{From: "GM0024", FromName: "Loppersum", To: "GM1979", ToName: "Eemsdelta"},
	}
}

// DefaultSplits lists dissolved municipalities. Haaren was divided over
// Oisterwijk, Vught, Boxtel and Tilburg in 2021.
func DefaultSplits() []Split {
	return []Split{
		{From: "GM0788", FromName: "Haaren", To: []string{"GM0824", "GM0865", "GM0757", "GM0855"}},
	}
}
