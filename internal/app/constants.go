package app

// MinPlayersToStartGame defines the minimum number of occupied seats required to start a game.
// The game config may raise it; it never goes below this.
const MinPlayersToStartGame = 2
