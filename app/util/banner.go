package util

var Banner = `
 _   _ _     _             ___    _ _____                     _
| | | (_)   | |           / _ \  | |  __ \                   | |
| | | |_  __| | ___  ___ / /_\ \/| | |  \/_   _  __ _ _ __ __| |
| | | | |/ _' |/ _ \/ _ \|  _  | ' | | __| | | |/ _' | '__/ _' |
\ \_/ / | (_| |  __/ (_) | | | |/\| | |_\ \ |_| | (_| | | | (_| |
 \___/|_|\__,_|\___|\___/\_| |_/\/\_/\____/\__,_|\__,_|_|  \__,_|
`
