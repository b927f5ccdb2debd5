package utils

const EcoRewardsArt = `
 ___            ___                       _
| __|__ ___    | _ \_____ __ ____ _ _ _ __| |___
| _|/ _/ _ \   |   / -_) V  V / _' | '_/ _' (_-<
|___\__\___/   |_|_\___|\_/\_/\__,_|_| \__,_/__/
`
