package sim

// 2025 grid
var driverNames = []string{
	"Oscar Piastri", "Lando Norris", "George Russell", "Kimi Antonelli",
	"Max Verstappen", "Yuki Tsunoda", "Charles Leclerc", "Lewis Hamilton",
	"Alexander Albon", "Carlos Sainz", "Liam Lawson", "Isack Hadjar",
	"Lance Stroll", "Fernando Alonso", "Esteban Ocon", "Oliver Bearman",
	"Nico Hulkenberg", "Gabriel Bortoleto", "Pierre Gasly", "Franco Colapinto",
}

var driverColors = []string{
	"#00D2BE", "#0600EF", "#DC0000", "#FF8700", "#DC0000",
	"#0600EF", "#00D2BE", "#006F62", "#FF8700", "#006F62",
	"#1E41FF", "#FF1800", "#00D4AB", "#E10600", "#00665E",
	"#FFB800", "#000000", "#FFFFFF", "#0090FF", "#FF6B00",
}
